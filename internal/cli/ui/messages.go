// Package ui renders command output: framed error messages, tables and
// "did you mean" suggestions.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a framed message.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message is a framed message with optional suggestions and follow-up commands.
type Message struct {
	Level        Level
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

func paint(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// Format renders m.
//
//	✗ CLASS NOT FOUND: kotlin/Strng
//	   No package on the classpath declares kotlin/Strng.
//
//	   Did you mean: kotlin/String?
//
//	   → List packages: interop inspect --packages
func (m Message) Format() string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch m.Level {
	case LevelWarning:
		header, body, symbol = paint(m.NoColor, color.FgYellow, color.Bold), paint(m.NoColor, color.FgYellow), "!"
	case LevelInfo:
		header, body, symbol = paint(m.NoColor, color.FgCyan, color.Bold), paint(m.NoColor, color.FgCyan), "i"
	default:
		header, body, symbol = paint(m.NoColor, color.FgRed, color.Bold), paint(m.NoColor, color.FgRed), "✗"
	}

	if m.Context != "" {
		header.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(m.Context))
		body.Fprintf(&b, "   %s\n", m.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}

	if m.Consequence != "" {
		b.WriteString("\n")
		body.Fprintf(&b, "   %s\n", m.Consequence)
	}
	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		paint(m.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}
	if len(m.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := paint(m.NoColor, color.FgCyan)
		for _, cmd := range m.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}
	return b.String()
}

// Write renders m to w.
func (m Message) Write(w io.Writer) {
	fmt.Fprint(w, m.Format())
}

// FormatSuccess renders a one-line success message.
func FormatSuccess(message string, noColor bool) string {
	return paint(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// ClassNotFound is the message for a class id no package declares.
func ClassNotFound(id string, suggestions []string, noColor bool) Message {
	return Message{
		Level:       LevelError,
		Context:     "class not found",
		Problem:     fmt.Sprintf("No package on the classpath declares %s.", id),
		Suggestions: suggestions,
		HelpCommands: []string{
			"List packages: interop inspect --packages",
			"Add records: set classpath in interop.yml",
		},
		NoColor: noColor,
	}
}

// ClasspathError is the message for a classpath that could not be loaded.
func ClasspathError(err error, noColor bool) Message {
	return Message{
		Level:       LevelError,
		Context:     "classpath error",
		Problem:     err.Error(),
		Consequence: "No resolution was attempted.",
		HelpCommands: []string{
			"Check the classpath entries in interop.yml",
			"Get help: interop --help",
		},
		NoColor: noColor,
	}
}

// ConfigError is the message for an invalid configuration.
func ConfigError(err error, noColor bool) Message {
	return Message{
		Level:   LevelError,
		Context: "configuration error",
		Problem: err.Error(),
		HelpCommands: []string{
			"View config: cat interop.yml",
			"Get help: interop --help",
		},
		NoColor: noColor,
	}
}

// Warning is an unframed warning.
func Warning(message string, noColor bool) Message {
	return Message{Level: LevelWarning, Problem: message, NoColor: noColor}
}
