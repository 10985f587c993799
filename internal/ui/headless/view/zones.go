package view

import "fmt"

const (
	zoneDialogQuitCancel = "dialog-quit-cancel"
	zoneDialogQuitAccept = "dialog-quit-accept"
	zoneDialogErrorClose = "dialog-error-close"
)

func zoneAction(a Action) string {
	return fmt.Sprintf("action-%d", int(a))
}
