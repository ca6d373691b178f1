// Package output renders trashctl results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the rendering.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json, yaml (or yml); empty means table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid output format %q (valid: table, json, yaml)", s)
}

func (f Format) String() string { return string(f) }

// Printer writes results in one format.
type Printer struct {
	out    io.Writer
	format Format
}

func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{out: out, format: format}
}

func (p *Printer) Format() Format { return p.format }

// Print renders data. Table output needs a TableRenderer; anything else
// falls back to JSON.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if r, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, r)
		}
		return printJSON(p.out, data)
	case FormatJSON:
		return printJSON(p.out, data)
	case FormatYAML:
		return yaml.NewEncoder(p.out).Encode(data)
	}
	return fmt.Errorf("unknown format: %s", p.format)
}

// Message prints a one-line status. Structured formats wrap it so the
// output stays machine-readable.
func (p *Printer) Message(msg string) error {
	if p.format == FormatTable {
		_, err := fmt.Fprintln(p.out, msg)
		return err
	}
	return p.Print(map[string]string{"message": msg})
}

func printJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
