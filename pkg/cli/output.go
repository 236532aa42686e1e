package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Command output goes to stdout, errors and warnings to stderr. Tests swap
// both for buffers.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// outputJSON controls whether commands should output JSON instead of styled text
var outputJSON bool

// SetJSONOutput sets the JSON output mode
func SetJSONOutput(enabled bool) {
	outputJSON = enabled
}

// IsJSONOutput returns true if JSON output mode is enabled
func IsJSONOutput() bool {
	return outputJSON
}

// PrintJSON outputs data as JSON if JSON mode is enabled, returns true if it did
func PrintJSON(data interface{}) bool {
	if !outputJSON {
		return false
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		PrintErrorMsg("encode output: " + err.Error())
	}
	return true
}

// PrintLine prints a bare line, for output meant to be piped
func PrintLine(s string) {
	fmt.Fprintln(stdout, s)
}

// PrintSuccess prints a success message with a green checkmark
func PrintSuccess(msg string) {
	fmt.Fprintf(stdout, "  %s %s\n", SuccessStyle.Render(SymbolSuccess), msg)
}

// PrintSuccessf prints a formatted success message
func PrintSuccessf(format string, args ...interface{}) {
	PrintSuccess(fmt.Sprintf(format, args...))
}

// PrintErrorMsg prints a simple error message string
func PrintErrorMsg(msg string) {
	fmt.Fprintf(stderr, "  %s %s\n", ErrorStyle.Render(SymbolError), ErrorStyle.Render(msg))
}

// PrintWarning prints a warning message with a yellow indicator
func PrintWarning(msg string) {
	fmt.Fprintf(stderr, "  %s %s\n", WarningStyle.Render(SymbolWarning), WarningStyle.Render(msg))
}

// PrintInfo prints an info message with an arrow
func PrintInfo(msg string) {
	fmt.Fprintf(stdout, "  %s %s\n", InfoStyle.Render(SymbolInfo), msg)
}

// PrintInfof prints a formatted info message
func PrintInfof(format string, args ...interface{}) {
	PrintInfo(fmt.Sprintf(format, args...))
}

// PrintHint prints a subtle hint/suggestion
func PrintHint(msg string) {
	fmt.Fprintf(stdout, "\n  %s\n", HintStyle.Render(msg))
}

// printSuggestions prints a titled list of suggestions to w
func printSuggestions(w io.Writer, title string, suggestions []string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", DimStyle.Render(title))
	for _, s := range suggestions {
		fmt.Fprintf(w, "    %s %s\n", DimStyle.Render(SymbolBullet), s)
	}
}

// PrintHeader prints a section header
func PrintHeader(title string) {
	fmt.Fprintf(stdout, "\n  %s\n\n", BoldStyle.Render(title))
}

// PrintKeyValue prints a key-value pair with consistent alignment
func PrintKeyValue(key, value string) {
	fmt.Fprintf(stdout, "  %s %s\n", KeyStyle.Render(key), value)
}

// PrintBullet prints a bulleted item
func PrintBullet(text string) {
	fmt.Fprintf(stdout, "    %s %s\n", DimStyle.Render(SymbolBullet), text)
}

// Table represents a styled table
type Table struct {
	Headers []string
	Rows    [][]string
	Widths  []int
}

// NewTable creates a new table with the given headers
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{
		Headers: headers,
		Widths:  widths,
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	// Pad or truncate to match header count
	row := make([]string, len(t.Headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
			if len(cells[i]) > t.Widths[i] {
				t.Widths[i] = len(cells[i])
			}
		}
	}
	t.Rows = append(t.Rows, row)
}

// Print renders the table to stdout
func (t *Table) Print() {
	if len(t.Rows) == 0 {
		return
	}

	fmt.Fprint(stdout, "  ")
	for i, h := range t.Headers {
		fmt.Fprint(stdout, TableHeaderStyle.Width(t.Widths[i]+2).Render(h))
	}
	fmt.Fprintln(stdout)

	fmt.Fprint(stdout, "  ")
	for i := range t.Headers {
		fmt.Fprint(stdout, DimStyle.Render(strings.Repeat("─", t.Widths[i])), "  ")
	}
	fmt.Fprintln(stdout)

	for _, row := range t.Rows {
		fmt.Fprint(stdout, "  ")
		for i, cell := range row {
			fmt.Fprint(stdout, TableCellStyle.Width(t.Widths[i]+2).Render(cell))
		}
		fmt.Fprintln(stdout)
	}
}

// formatFloats joins numbers with ", " using the shortest representation
func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
