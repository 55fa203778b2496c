// Package cli formats console output: the per-test banner and the json,
// yaml and text renderings of stored runs.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/benchverify/internal/history"
)

// Output formats accepted by Print
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// bannerWidth is the length of the dashed border around a banner
const bannerWidth = 79

var (
	bannerStyle = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Banner prints text between two dashed borders
func Banner(w io.Writer, text string) {
	border := strings.Repeat("-", bannerWidth)
	fmt.Fprintf(w, "%s\n  %s\n%s\n", border, bannerStyle.Render(text), border)
}

// VerifyingBanner prints the header shown before a test type is verified
func VerifyingBanner(w io.Writer, testType string) {
	Banner(w, "VERIFYING "+strings.ToUpper(testType))
}

// Print writes v in the requested format. Values that are not runs fall
// back to YAML in text mode.
func Print(w io.Writer, v any, format string) error {
	output, err := formatOutput(v, format)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = io.WriteString(w, output)
	return err
}

func formatOutput(v any, format string) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil

	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil

	case FormatText, "":
		switch runs := v.(type) {
		case []*history.Run:
			return formatRuns(runs), nil
		case *history.Run:
			return formatRuns([]*history.Run{runs}), nil
		}
		// Filtered results have arbitrary shape
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil

	default:
		return "", fmt.Errorf("unknown output format %q (use json, yaml or text)", format)
	}
}

func formatRuns(runs []*history.Run) string {
	if len(runs) == 0 {
		return "No verification runs recorded.\n"
	}

	var sb strings.Builder
	for _, run := range runs {
		sb.WriteString(fmt.Sprintf("%s  %-12s %s  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.TestType,
			statusStyle(run.Status).Render(fmt.Sprintf("%-5s", run.Status)),
			run.URL))

		details := fmt.Sprintf("id %s | %d warnings, %d errors | %s", run.ID, run.Warnings, run.Errors, run.Duration().Round(1e6))
		if run.Database != "" {
			details += " | " + run.Database
		}
		sb.WriteString("    " + dimStyle.Render(details) + "\n")

		for _, f := range run.Findings {
			sb.WriteString(fmt.Sprintf("    %s %s\n", statusStyle(strings.ToUpper(f.Kind.String())).Render("-"), f.Message))
		}
	}
	return sb.String()
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "ERROR":
		return errorStyle
	case "WARN", "WARNING":
		return warnStyle
	}
	return passStyle
}
