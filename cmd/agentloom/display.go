package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/agentloom/pkg/skill"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// colorEnabled reports whether stdout wants styled output.
func colorEnabled() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) &&
		termenv.EnvColorProfile() != termenv.Ascii
}

// statusLabel renders a validation state, colored on terminals.
func statusLabel(kind skill.StatusKind) string {
	label := kind.String()
	if !colorEnabled() {
		return label
	}
	switch kind {
	case skill.StatusValid:
		return validStyle.Render(label)
	case skill.StatusWarning:
		return warningStyle.Render(label)
	case skill.StatusInvalid:
		return invalidStyle.Render(label)
	default:
		return dimStyle.Render(label)
	}
}

// renderMarkdown renders a skill document for the terminal. Piped
// output and render failures fall back to the raw document.
func renderMarkdown(content string) string {
	if !colorEnabled() {
		return content
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

// printTable renders rows with a header, falling back to tab-delimited
// plain text when not on a terminal.
func printTable(header []string, rows [][]string) {
	if !colorEnabled() {
		fmt.Println(strings.Join(header, "\t"))
		for _, row := range rows {
			fmt.Println(strings.Join(row, "\t"))
		}
		return
	}

	data := pterm.TableData{header}
	data = append(data, rows...)
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// heading prints a bold section title.
func heading(text string) {
	if colorEnabled() {
		fmt.Println(titleStyle.Render(text))
	} else {
		fmt.Println(text)
	}
}

// dim prints secondary text.
func dim(text string) string {
	if colorEnabled() {
		return dimStyle.Render(text)
	}
	return text
}

// checkmark and cross for result lines.
func mark(ok bool) string {
	if ok {
		if colorEnabled() {
			return validStyle.Render("✓")
		}
		return "✓"
	}
	if colorEnabled() {
		return invalidStyle.Render("✗")
	}
	return "✗"
}
