package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// Gruvbox-inspired palette shared by tables and status lines
var (
	gruvboxRed     = text.Colors{text.FgRed}
	gruvboxGreen   = text.Colors{text.FgGreen}
	gruvboxYellow  = text.Colors{text.FgYellow}
	gruvboxBlue    = text.Colors{text.FgBlue}
	gruvboxAqua    = text.Colors{text.FgCyan}
	gruvboxFgDark  = text.Colors{text.FgHiBlack}
	gruvboxFgLight = text.Colors{text.FgWhite}

	gruvboxBlueBright   = text.Colors{text.FgHiBlue}
	gruvboxAquaBright   = text.Colors{text.FgHiCyan}
	gruvboxGreenBright  = text.Colors{text.FgHiGreen}
	gruvboxYellowBright = text.Colors{text.FgHiYellow}

	gruvboxBold = text.Colors{text.Bold}
)

// Theme holds the colors used for terminal output
var Theme = struct {
	Success text.Colors
	Info    text.Colors
	Warning text.Colors
	Error   text.Colors
	Heading text.Colors
	Subtle  text.Colors
	Accent  text.Colors

	Title       text.Colors
	TableHeader text.Colors
	TableBorder text.Colors
	TableRow    text.Colors
	TableAltRow text.Colors
	Badge       text.Colors
	Code        text.Colors
}{
	Success: gruvboxGreen,
	Info:    gruvboxBlue,
	Warning: gruvboxYellow,
	Error:   gruvboxRed,
	Heading: append(gruvboxAquaBright, text.Bold),
	Subtle:  gruvboxFgDark,
	Accent:  gruvboxAqua,

	Title:       append(gruvboxAquaBright, text.Bold),
	TableHeader: append(gruvboxBlueBright, text.Bold),
	TableBorder: gruvboxBlue,
	TableRow:    gruvboxFgLight,
	TableAltRow: text.Colors{text.FgWhite, text.Faint},
	Badge:       append(gruvboxYellowBright, text.Bold),
	Code:        gruvboxGreenBright,
}

// DefaultWrapWidth is the column width descriptions are wrapped to
const DefaultWrapWidth = 72

// PrintHeading prints a formatted heading
func PrintHeading(title string) {
	fmt.Println(Theme.Heading.Sprint(title))
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Println(Theme.Success.Sprint("✓ ") + message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Println(Theme.Info.Sprint("ℹ ") + message)
}

// PrintWarning prints a warning message to stderr
func PrintWarning(message string) {
	fmt.Fprintln(os.Stderr, Theme.Warning.Sprint("⚠ ")+message)
}

// PrintError prints an error message to stderr
func PrintError(message string) {
	fmt.Fprintln(os.Stderr, Theme.Error.Sprint("✗ ")+message)
}

// PrintKeyValue prints a key-value pair
func PrintKeyValue(key, value string) {
	PrintKeyValueTo(os.Stdout, key, value)
}

// Highlight returns s in the accent color used for paths and names
func Highlight(s string) string {
	return color.YellowString("%s", s)
}

// Command returns s styled as a command the user can type
func Command(s string) string {
	return color.CyanString("%s", s)
}

// CodeBlock indents code by four spaces and colors it
func CodeBlock(code string) string {
	return Theme.Code.Sprint(indent.String(strings.TrimRight(code, "\n"), 4))
}

// WrapText wraps str at width columns, prefixing every line with prefix
func WrapText(str string, width int, prefix string) string {
	if width <= 0 {
		width = DefaultWrapWidth
	}
	wrapped := wordwrap.String(str, width)
	if prefix == "" {
		return wrapped
	}

	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// TableOptions defines options for table creation
type TableOptions struct {
	Title  string
	Output io.Writer
}

// DefaultTableOptions returns options that render an untitled table to stdout
func DefaultTableOptions() TableOptions {
	return TableOptions{Output: os.Stdout}
}

// CreateTable creates a table writer styled with the theme
func CreateTable(opts TableOptions) table.Writer {
	t := table.NewWriter()
	if opts.Output != nil {
		t.SetOutputMirror(opts.Output)
	}
	if opts.Title != "" {
		t.SetTitle(opts.Title)
	}

	style := table.StyleRounded
	style.Color.Header = Theme.TableHeader
	style.Color.Border = Theme.TableBorder
	style.Color.Separator = Theme.TableBorder
	style.Color.Row = Theme.TableRow
	style.Color.RowAlternate = Theme.TableAltRow
	style.Title.Colors = Theme.Title
	style.Title.Align = text.AlignCenter
	style.Options.SeparateColumns = true
	style.Options.SeparateHeader = true
	style.Options.SeparateRows = false
	t.SetStyle(style)

	return t
}

// PrintTable renders headers and rows as a table
func PrintTable(headers []string, rows [][]string, opts TableOptions) {
	t := CreateTable(opts)

	header := make(table.Row, 0, len(headers))
	for _, h := range headers {
		header = append(header, h)
	}
	t.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, 0, len(row))
		for _, cell := range row {
			r = append(r, cell)
		}
		t.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignCenter,
		})
	}
	t.SetColumnConfigs(configs)
	t.Render()
}
