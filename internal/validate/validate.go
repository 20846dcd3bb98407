// Package validate checks model documents and reports decode failures and
// structural warnings per file.
package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/kong/tablemodel/internal/loader"
	"github.com/kong/tablemodel/internal/mapping"
	"github.com/kong/tablemodel/internal/model"
	"sigs.k8s.io/yaml"
)

// Severity represents the severity level of a finding.
type Severity int

const (
	SeverityWarn Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warn"
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result is one finding in one file. Path is the key path inside the
// document, empty when the finding concerns the whole file.
type Result struct {
	File     string   `json:"file"`
	Path     string   `json:"path,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Summary describes one checked file.
type Summary struct {
	File     string `json:"file"`
	Valid    bool   `json:"valid"`
	Title    string `json:"title,omitempty"`
	Tables   int    `json:"tables"`
	Sections int    `json:"sections"`
	Items    int    `json:"items"`
	Depth    int    `json:"depth"`
}

// Output aggregates the checks of several files.
type Output struct {
	Files      []Summary `json:"files"`
	ErrorCount int       `json:"errorCount"`
	WarnCount  int       `json:"warnCount"`
	Results    []Result  `json:"results"`
}

// Selector narrows a parsed document to the table object before decoding.
type Selector func(root any) (any, error)

// Add records the outcome of one file.
func (o *Output) Add(summary Summary, results []Result) {
	o.Files = append(o.Files, summary)
	for _, r := range results {
		if r.Severity == SeverityError {
			o.ErrorCount++
		} else {
			o.WarnCount++
		}
	}
	o.Results = append(o.Results, results...)
}

// Document checks an already parsed document.
func Document(file string, root any, sel Selector) (Summary, []Result) {
	summary := Summary{File: file}
	if sel != nil {
		selected, err := sel(root)
		if err != nil {
			return summary, []Result{{File: file, Severity: SeverityError, Message: err.Error()}}
		}
		root = selected
	}

	table, err := model.Decode(root)
	if err != nil {
		return summary, []Result{{
			File:     file,
			Path:     mapping.Path(err),
			Severity: SeverityError,
			Message:  err.Error(),
		}}
	}

	stats := model.Measure(table)
	summary.Valid = true
	summary.Title = table.Title
	summary.Tables = stats.Tables
	summary.Sections = stats.Sections
	summary.Items = stats.Items
	summary.Depth = stats.Depth

	var results []Result
	inspect(file, "", table, &results)
	return summary, results
}

// inspect reports structural issues that decode accepts.
func inspect(file, prefix string, t model.Table, results *[]Result) {
	warn := func(path, msg string) {
		*results = append(*results, Result{File: file, Path: path, Severity: SeverityWarn, Message: msg})
	}

	for _, id := range t.DuplicateIdentifiers() {
		warn(join(prefix, "sections"), fmt.Sprintf("identifier %q is used by more than one item", id))
	}
	for s, section := range t.Sections {
		sectionPath := join(prefix, "sections["+strconv.Itoa(s)+"]")
		if len(section.Items) == 0 {
			warn(join(sectionPath, "items"), "section has no items")
		}
		for r, item := range section.Items {
			if item.Data == nil {
				continue
			}
			child := item.Data.Child()
			if child == nil {
				continue
			}
			childPath := join(sectionPath, "items["+strconv.Itoa(r)+"].data.table")
			if child.IsEmpty() {
				warn(childPath, fmt.Sprintf("child table of %q has no sections, the item is not navigable", item.Identifier))
				continue
			}
			inspect(file, childPath, *child, results)
		}
	}
}

func join(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}

// Files loads and checks every path. Unreadable files are reported as
// errors of that file rather than aborting the run.
func Files(paths []string, sel Selector) *Output {
	output := &Output{Files: []Summary{}, Results: []Result{}}
	for _, p := range paths {
		doc, err := loader.LoadFile(p)
		if err != nil {
			output.Add(Summary{File: p}, []Result{{File: p, Severity: SeverityError, Message: err.Error()}})
			continue
		}
		output.Add(Document(p, doc.Root, sel))
	}

	sort.SliceStable(output.Results, func(i, j int) bool {
		if output.Results[i].File != output.Results[j].File {
			return output.Results[i].File < output.Results[j].File
		}
		return output.Results[i].Severity > output.Results[j].Severity
	})
	return output
}

// FormatPlain writes one line per file followed by one line per finding.
func FormatPlain(w io.Writer, output *Output) error {
	for _, f := range output.Files {
		status := "invalid"
		if f.Valid {
			status = fmt.Sprintf("ok (tables=%d sections=%d items=%d depth=%d)",
				f.Tables, f.Sections, f.Items, f.Depth)
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", f.File, status); err != nil {
			return err
		}
	}
	for _, r := range output.Results {
		location := r.File
		if r.Path != "" {
			location += ":" + r.Path
		}
		if _, err := fmt.Fprintf(w, "%s: [%s] %s\n", location, r.Severity, r.Message); err != nil {
			return err
		}
	}
	return nil
}

// FormatJSON writes the output in JSON format to the writer.
func FormatJSON(w io.Writer, output *Output) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// FormatYAML writes the output in YAML format to the writer.
func FormatYAML(w io.Writer, output *Output) error {
	data, err := yaml.Marshal(output)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// FormatOutput writes output in the specified format.
func FormatOutput(w io.Writer, output *Output, format string) error {
	switch format {
	case "json":
		return FormatJSON(w, output)
	case "yaml":
		return FormatYAML(w, output)
	case "text", "":
		return FormatPlain(w, output)
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}
