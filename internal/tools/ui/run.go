// Package ui renders operator command output. Plain styled text, no
// interactive loop, so output stays usable under a pipe.
package ui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Run executes the action under a timeout and prints a titled result block.
func Run(title string, action func(context.Context) ([]string, error)) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println(titleStyle.Render(title))
	details, err := action(ctx)
	if err != nil {
		fmt.Printf("%s: %v\n", failStyle.Render("FAILED"), err)
	} else {
		fmt.Println(okStyle.Render("OK"))
	}
	for _, d := range details {
		fmt.Println("- " + d)
	}
	return details, err
}

// Warn prints a highlighted notice to stderr.
func Warn(message string) {
	fmt.Fprintln(os.Stderr, warnStyle.Render(message))
}
