// Package console renders reports for terminal output.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/macrolens/allergenscan/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Format selects how reports are written
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	noAllergensNotice = "No major allergens found in available text fields."
	reportSeparator   = "—"
)

// ParseFormat validates a --format flag value
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", value)
	}
}

// Renderer writes reports and errors in one format
type Renderer struct {
	out    io.Writer
	format Format
	title  cases.Caser
}

// NewRenderer creates a renderer writing to out
func NewRenderer(out io.Writer, format Format) *Renderer {
	if format == "" {
		format = FormatText
	}
	return &Renderer{
		out:    out,
		format: format,
		title:  cases.Title(language.English),
	}
}

// RenderReport writes a report
func (r *Renderer) RenderReport(report *domain.Report) error {
	switch r.format {
	case FormatJSON:
		return r.writeJSON(report)
	case FormatYAML:
		return r.writeYAML(report)
	default:
		return r.writeText(report)
	}
}

// RenderError writes the user-facing message for err
func (r *Renderer) RenderError(err error) error {
	result := domain.ErrorResult{Error: domain.UserMessage(err)}

	switch r.format {
	case FormatJSON:
		return r.writeJSON(result)
	case FormatYAML:
		return r.writeYAML(result)
	default:
		_, werr := fmt.Fprintln(r.out, result.Error)
		return werr
	}
}

func (r *Renderer) writeText(report *domain.Report) error {
	allergens := noAllergensNotice
	if report.HasAllergens() {
		allergens = strings.Join(report.Allergens, ", ")
	}

	lines := []struct {
		label string
		value string
	}{
		{"name", report.Name},
		{"brand", report.Brand},
		{"calories", report.Calories},
		{"protein", report.Protein},
		{"ingredients (search result)", report.IngredientsSearch},
		{"ingredients (details)", report.IngredientsDetails},
		{"detected allergens", allergens},
	}

	var b strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&b, "%s: %s\n", r.title.String(line.label), line.value)
	}
	b.WriteString(reportSeparator + "\n")

	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *Renderer) writeJSON(v interface{}) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) writeYAML(v interface{}) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
