// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "output.kind",
// "casualties.source.file.path"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation of a Pipeline.
//
// It does not mutate the pipeline. Callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	issues = append(issues, validateDataset("collisions", p.Collisions)...)
	issues = append(issues, validateDataset("vehicles", p.Vehicles)...)
	issues = append(issues, validateDataset("casualties", p.Casualties)...)
	issues = append(issues, validateFilter(p.Filter)...)
	issues = append(issues, validateChunks(p.Chunks)...)
	issues = append(issues, validateOutput(p.Output)...)

	return issues
}

// identifierColumns are the key columns shared across the three datasets.
// They must stay text: join keys compare string values, and coercing codes
// like "2020010001" or a zero-padded reference would silently empty the key
// set.
var identifierColumns = map[string]bool{
	"accident_index":     true,
	"accident_reference": true,
	"vehicle_reference":  true,
	"casualty_reference": true,
}

// validateDataset validates one dataset block under the given path prefix.
func validateDataset(path string, d Dataset) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(d.Source.Kind)
	if kind == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	switch kind {
	case "file":
		if strings.TrimSpace(d.Source.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		if strings.TrimSpace(d.Source.HTTP.URL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".source.http.url",
				Message:  "http source requires a non-empty url",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     path + ".source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", kind),
		})
	}

	if pk := strings.TrimSpace(d.Parser.Kind); pk != "" && pk != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q (only \"csv\")", pk),
		})
	}

	if enc := d.Parser.Options.String("encoding", ""); enc != "" {
		switch enc {
		case "utf8", "latin1", "windows1250":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".parser.options.encoding",
				Message:  fmt.Sprintf("unknown encoding %q (use utf8, latin1, or windows1250)", enc),
			})
		}
	}

	for col, typ := range d.Types {
		switch typ {
		case "text", "int", "real":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("%s.types.%s", path, col),
				Message:  fmt.Sprintf("unknown column type %q (use text, int, or real)", typ),
			})
			continue
		}
		if identifierColumns[col] && typ != "text" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("%s.types.%s", path, col),
				Message:  fmt.Sprintf("identifier column must be text, got %q; non-text keys never match", typ),
			})
		}
	}

	return issues
}

// validateFilter validates the collision predicate block.
func validateFilter(f Filter) []Issue {
	var issues []Issue
	if strings.TrimSpace(f.Column) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "filter.column",
			Message:  "filter.column must name the collision column the predicate tests",
		})
	}
	if f.Equals == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "filter.equals",
			Message:  "filter.equals is empty; only rows with an empty value will match",
		})
	}
	return issues
}

// validateChunks rejects negative chunk sizes; zero means "use the default".
func validateChunks(c Chunks) []Issue {
	var issues []Issue
	if c.ScanChunkSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "chunks.scan_chunk_size",
			Message:  "scan_chunk_size must not be negative",
		})
	}
	if c.LoadChunkSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "chunks.load_chunk_size",
			Message:  "load_chunk_size must not be negative",
		})
	}
	return issues
}

// validateOutput validates the sink block.
func validateOutput(o Output) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(o.Kind)
	if kind == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.kind",
			Message:  "output.kind must not be empty",
		})
		return issues
	}

	switch kind {
	case "csv":
		if strings.TrimSpace(o.CSV.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.csv.path",
				Message:  "csv output requires a non-empty path",
			})
		}
	case "postgres", "sqlite", "mysql", "mssql":
		if strings.TrimSpace(o.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.db.dsn",
				Message:  "database output requires a non-empty dsn",
			})
		}
		if strings.TrimSpace(o.DB.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.db.table",
				Message:  "database output requires a non-empty table",
			})
		}
		if o.DB.BatchSize < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.db.batch_size",
				Message:  "batch_size must not be negative",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "output.kind",
			Message:  fmt.Sprintf("unknown output kind %q; ensure a matching implementation exists", kind),
		})
	}

	return issues
}
