package storyctl

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// SuccessColor for successful operations
	SuccessColor = color.New(color.FgGreen, color.Bold)

	// ErrorColor for error messages
	ErrorColor = color.New(color.FgRed, color.Bold)

	// WarningColor for warning messages
	WarningColor = color.New(color.FgYellow, color.Bold)

	// InfoColor for informational messages
	InfoColor = color.New(color.FgCyan, color.Bold)

	// TitleColor for titles and headers
	TitleColor = color.New(color.FgMagenta, color.Bold)
)

// printer writes decorated lines to one stream.
type printer struct {
	w io.Writer
}

func (p printer) Success(format string, args ...any) {
	_, _ = SuccessColor.Fprintf(p.w, "✅ "+format+"\n", args...)
}

func (p printer) Error(format string, args ...any) {
	_, _ = ErrorColor.Fprintf(p.w, "❌ "+format+"\n", args...)
}

func (p printer) Warning(format string, args ...any) {
	_, _ = WarningColor.Fprintf(p.w, "⚠️  "+format+"\n", args...)
}

func (p printer) Info(format string, args ...any) {
	_, _ = InfoColor.Fprintf(p.w, "ℹ️  "+format+"\n", args...)
}

func (p printer) Title(format string, args ...any) {
	_, _ = TitleColor.Fprintf(p.w, "📚 "+format+"\n", args...)
}

// Field prints an aligned "label: value" line.
func (p printer) Field(label string, value any) {
	fmt.Fprintf(p.w, "  %-18s %v\n", label+":", value)
}

// List prints items under a heading, or nothing when empty.
func (p printer) List(heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(p.w, "  %s:\n", heading)
	for _, it := range items {
		fmt.Fprintf(p.w, "    • %s\n", it)
	}
}

func (p printer) Separator() {
	fmt.Fprintln(p.w, strings.Repeat("─", 80))
}

func (p printer) Line(s string) {
	fmt.Fprintln(p.w, s)
}
