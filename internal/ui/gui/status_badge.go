//go:build !headless

package gui

import (
	"image/color"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	badgeDotSize      = float32(12)
	badgeHoverTarget  = float32(24)
	badgeTooltipDelay = 180 * time.Millisecond
)

type tooltipHandlers struct {
	Show func(string, fyne.Position)
	Move func(fyne.Position)
	Hide func()
}

// statusBadge is a coloured dot that shows its reason in the window's
// tooltip layer while hovered.
type statusBadge struct {
	widget.BaseWidget

	dot      *canvas.Circle
	tooltip  string
	handlers tooltipHandlers

	hoverSeq atomic.Uint64
	pointer  fyne.Position
	shown    bool
}

var _ desktop.Hoverable = (*statusBadge)(nil)

func newStatusBadge(handlers tooltipHandlers) *statusBadge {
	b := &statusBadge{
		dot:      canvas.NewCircle(statusIdleColor),
		handlers: handlers,
	}
	b.ExtendBaseWidget(b)
	return b
}

func (b *statusBadge) SetStatus(fill color.NRGBA, tooltip string) {
	b.dot.FillColor = fill
	b.dot.Refresh()
	b.tooltip = tooltip
	switch {
	case tooltip == "":
		b.hide()
	case b.shown:
		b.show()
	}
}

func (b *statusBadge) MinSize() fyne.Size {
	return fyne.NewSize(badgeHoverTarget, badgeHoverTarget)
}

func (b *statusBadge) CreateRenderer() fyne.WidgetRenderer {
	anchor := canvas.NewRectangle(color.Transparent)
	anchor.SetMinSize(b.MinSize())
	dot := container.NewGridWrap(fyne.NewSize(badgeDotSize, badgeDotSize), b.dot)
	return widget.NewSimpleRenderer(container.NewStack(anchor, container.NewCenter(dot)))
}

func (b *statusBadge) MouseIn(ev *desktop.MouseEvent) {
	b.track(ev)
	if b.tooltip == "" {
		return
	}
	seq := b.hoverSeq.Add(1)
	time.AfterFunc(badgeTooltipDelay, func() {
		fyne.Do(func() {
			if b.hoverSeq.Load() == seq {
				b.show()
			}
		})
	})
}

func (b *statusBadge) MouseMoved(ev *desktop.MouseEvent) {
	b.track(ev)
	if b.shown && b.handlers.Move != nil {
		b.handlers.Move(b.pointer)
	}
}

func (b *statusBadge) MouseOut() {
	b.hoverSeq.Add(1)
	b.hide()
}

func (b *statusBadge) track(ev *desktop.MouseEvent) {
	if ev == nil {
		return
	}
	b.pointer = ev.AbsolutePosition
}

func (b *statusBadge) show() {
	if b.tooltip == "" {
		return
	}
	if b.handlers.Show != nil {
		b.handlers.Show(b.tooltip, b.pointer)
	}
	b.shown = true
}

func (b *statusBadge) hide() {
	if b.shown && b.handlers.Hide != nil {
		b.handlers.Hide()
	}
	b.shown = false
}
