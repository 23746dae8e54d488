package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/portopt"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed *.md
var templates embed.FS

// funcs are the helpers available to every template.
var funcs = template.FuncMap{
	"usd": func(v float64) string { return portopt.USD(v).String() },
}

// RenderReport renders a run report to a markdown string.
func RenderReport(r *Report) string {
	partials := map[string]string{
		"report_title":      "report_title.md",
		"report_problem":    "report_problem.md",
		"report_solution":   "report_solution.md",
		"report_allocation": "report_allocation.md",
	}
	// Single period runs have no rebalancing section.
	if len(r.Steps) > 0 {
		partials["report_steps"] = "report_steps.md"
	} else {
		partials["report_steps"] = ""
	}
	return renderTemplate("report", "report.md", partials, r)
}

// RenderRuns renders the run history to a markdown string.
func RenderRuns(runs []RunSummary) string {
	return renderTemplate("runs", "runs.md", nil, runs)
}

// ToHTML converts a markdown document, tables included, to HTML.
func ToHTML(md string) (string, error) {
	var b bytes.Buffer
	conv := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := conv.Convert([]byte(md), &b); err != nil {
		return "", fmt.Errorf("cannot convert markdown to html: %w", err)
	}
	return b.String(), nil
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
