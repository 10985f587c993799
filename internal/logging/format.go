package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const clipLimit = 240

var (
	colorProfileOnce sync.Once

	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	componentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	messageStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	keyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	sepStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func shouldColorize() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := strings.TrimSpace(os.Getenv("TERM"))
	return term != "" && term != "dumb"
}

// Truncate flattens value onto one line and clips it for log fields.
func Truncate(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return "<empty>"
	}
	if len(value) > clipLimit {
		return value[:clipLimit] + "..."
	}
	return value
}

// FormatPayload renders an HTTP or JSON payload compactly for a log field.
// Quoted JSON strings are unwrapped; anything else is clipped as text.
func FormatPayload(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "<empty>"
	}
	var quoted string
	if err := json.Unmarshal(trimmed, &quoted); err == nil {
		trimmed = []byte(strings.TrimSpace(quoted))
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err == nil {
		return Truncate(compact.String())
	}
	return Truncate(string(trimmed))
}

func FormatEventLine(event Event) string {
	var b strings.Builder
	b.WriteString(event.Time.Format("15:04:05"))
	b.WriteString(" [")
	b.WriteString(strings.ToUpper(event.Level.String()))
	b.WriteString("] ")
	if event.Component != "" {
		b.WriteString(event.Component)
		b.WriteString(": ")
	}
	b.WriteString(event.Message)
	for _, key := range sortedKeys(event.Fields) {
		fmt.Fprintf(&b, " %s=%s", key, fieldText(event.Fields[key]))
	}
	b.WriteByte('\n')
	return b.String()
}

// FormatEventANSI renders event with terminal colors. The color profile is
// forced so the result can be embedded in TUI views as well as stderr.
func FormatEventANSI(event Event) string {
	colorProfileOnce.Do(func() {
		lipgloss.SetColorProfile(termenv.TrueColor)
	})
	label, badge := levelBadge(event.Level)
	parts := []string{timeStyle.Render(event.Time.Format("15:04:05.000")), badge.Render(label)}
	if event.Component != "" {
		parts = append(parts, componentStyle.Render(event.Component))
	}
	parts = append(parts, messageStyle.Render(event.Message))
	line := strings.Join(parts, " ")

	keys := sortedKeys(event.Fields)
	if len(keys) > 0 {
		fields := make([]string, 0, len(keys))
		for _, key := range keys {
			fields = append(fields, keyStyle.Render(key)+sepStyle.Render("=")+valueStyle.Render(fieldText(event.Fields[key])))
		}
		line += "  " + strings.Join(fields, " ")
	}
	return line + "\n"
}

func levelBadge(level slog.Level) (string, lipgloss.Style) {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch {
	case level <= slog.LevelDebug:
		return "DEBUG", base.Foreground(lipgloss.Color("255")).Background(lipgloss.Color("240"))
	case level <= slog.LevelInfo:
		return "INFO", base.Foreground(lipgloss.Color("230")).Background(lipgloss.Color("31"))
	case level <= slog.LevelWarn:
		return "WARN", base.Foreground(lipgloss.Color("234")).Background(lipgloss.Color("214"))
	default:
		return "ERROR", base.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160"))
	}
}

func sortedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func fieldText(value any) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case error:
		return Truncate(v.Error())
	case string:
		if strings.ContainsAny(v, " \t\n") {
			return fmt.Sprintf("%q", Truncate(v))
		}
		return v
	case []byte:
		return FormatPayload(v)
	case map[string]any:
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(payload)
	default:
		return fmt.Sprintf("%v", v)
	}
}
