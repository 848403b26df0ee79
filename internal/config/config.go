// Package config defines the canonical, JSON-serializable configuration model
// for the filter-and-join pipeline. It is intentionally small and explicit so
// that run definitions can be loaded from disk and passed through the program
// without additional glue code.
//
// A run file names the three linked datasets (collisions, vehicles,
// casualties), the predicate over collisions, the chunk sizes, and the output
// sink. Example (trimmed):
//
//	{
//	  "job": "dft_force14",
//	  "collisions": { "source": { "kind": "file", "file": { "path": "collision.csv" } } },
//	  "vehicles":   { "source": { "kind": "file", "file": { "path": "vehicle.csv" } } },
//	  "casualties": { "source": { "kind": "file", "file": { "path": "casualty.csv" } } },
//	  "filter":     { "column": "police_force", "equals": "14" },
//	  "output":     { "kind": "csv", "csv": { "path": "output/force14.csv" } }
//	}
package config

import "encoding/json"

// Pipeline is the top-level object decoded from a run file.
type Pipeline struct {
	// Job identifies the run; it is used for metrics labeling and log lines.
	Job string `json:"job"`

	// Collisions is the primary dataset; the filter predicate is evaluated
	// against it and its accident_index values form the relevant key set.
	Collisions Dataset `json:"collisions"`

	// Vehicles is keyed by (accident_index, vehicle_reference).
	Vehicles Dataset `json:"vehicles"`

	// Casualties is keyed by (accident_index, casualty_reference) and carries
	// the vehicle_reference used by the second join.
	Casualties Dataset `json:"casualties"`

	// Filter selects the relevant collisions.
	Filter Filter `json:"filter"`

	// Chunks configures the two chunk sizes used by the streaming passes.
	Chunks Chunks `json:"chunks"`

	// Output describes the single sink written at the end of the run.
	Output Output `json:"output"`
}

// Dataset describes one tabular input: where its bytes come from, how the CSV
// is parsed, and how declared columns are typed.
type Dataset struct {
	Source Source `json:"source"`
	Parser Parser `json:"parser"`

	// Types maps canonical column names to "text", "int", or "real".
	// Undeclared columns pass through as text. Identifier columns
	// (accident_index, accident_reference, vehicle_reference,
	// casualty_reference) must stay text so keys like "2020010001" keep
	// their exact form; ValidatePipeline rejects other types for them.
	Types map[string]string `json:"types"`
}

// Source identifies where a dataset's bytes come from.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url"`

	// TimeoutSeconds bounds a single request; 0 uses the client default.
	TimeoutSeconds int `json:"timeout_seconds"`

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int `json:"max_retries"`
}

// Parser configures how raw bytes are turned into rows.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser. For CSV, typical
	// keys are: has_header (bool), comma (string), trim_space (bool),
	// lazy_quotes (bool), header_map (object), encoding (string).
	Options Options `json:"options"`
}

// Filter is the predicate over the collisions dataset: rows whose Column
// equals Equals (compared as text) are relevant.
type Filter struct {
	Column string `json:"column"`
	Equals string `json:"equals"`
}

// Chunks holds the per-pass chunk sizes. Zero values fall back to the
// defaults: 100000 for the key-scan pass, 50000 for the gated re-load passes.
type Chunks struct {
	ScanChunkSize int `json:"scan_chunk_size"`
	LoadChunkSize int `json:"load_chunk_size"`
}

// Output selects the sink used to persist the joined table.
type Output struct {
	// Kind selects the sink implementation: "csv", "postgres", "sqlite",
	// "mysql", or "mssql".
	Kind string `json:"kind"`

	CSV OutputCSV `json:"csv"`
	DB  DBConfig  `json:"db"`
}

// OutputCSV configures the "csv" sink kind.
type OutputCSV struct {
	// Path is the output file path; missing parent directories are created.
	Path string `json:"path"`
}

// DBConfig configures the database sink kinds.
type DBConfig struct {
	// DSN is the driver connection string (pgx URL, sqlite path, etc.).
	DSN string `json:"dsn"`

	// Table is the target table name (possibly schema-qualified).
	Table string `json:"table"`

	// AutoCreateTable creates the target table from the joined frame's
	// columns before loading when set.
	AutoCreateTable bool `json:"auto_create_table"`

	// BatchSize bounds one bulk-load round trip; 0 uses the sink default.
	BatchSize int `json:"batch_size"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns the provided default
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so this accepts float64 and casts.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def when missing
// or empty. Used for single-character parser settings such as the delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON decodes a missing or null "options" object to a non-nil,
// empty Options map so call sites need no nil checks.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
