package config

import (
	"encoding/json"
	"reflect"
	"testing"
)

// TestPipelineDecode verifies that a representative run file decodes into the
// expected structure, including nested parser options.
func TestPipelineDecode(t *testing.T) {
	t.Parallel()

	js := `{
	  "job": "dft_force14",
	  "collisions": {
	    "source": { "kind": "file", "file": { "path": "collision.csv" } },
	    "parser": { "kind": "csv", "options": { "has_header": true, "lazy_quotes": true } },
	    "types": { "accident_year": "int", "police_force": "int" }
	  },
	  "vehicles": {
	    "source": { "kind": "http", "http": { "url": "https://example.com/vehicle.csv", "timeout_seconds": 60, "max_retries": 2 } }
	  },
	  "casualties": {
	    "source": { "kind": "file", "file": { "path": "casualty.csv" } }
	  },
	  "filter": { "column": "police_force", "equals": "14" },
	  "chunks": { "scan_chunk_size": 1000, "load_chunk_size": 500 },
	  "output": { "kind": "csv", "csv": { "path": "output/force14.csv" } }
	}`

	var p Pipeline
	if err := json.Unmarshal([]byte(js), &p); err != nil {
		t.Fatalf("json.Unmarshal(Pipeline): %v", err)
	}

	if p.Job != "dft_force14" {
		t.Fatalf("Job = %q; want dft_force14", p.Job)
	}
	if p.Collisions.Source.Kind != "file" || p.Collisions.Source.File.Path != "collision.csv" {
		t.Fatalf("collisions source = %+v", p.Collisions.Source)
	}
	if !p.Collisions.Parser.Options.Bool("lazy_quotes", false) {
		t.Fatalf("collisions lazy_quotes not decoded")
	}
	if got := p.Collisions.Types["police_force"]; got != "int" {
		t.Fatalf("collisions types[police_force] = %q; want int", got)
	}
	if p.Vehicles.Source.HTTP.URL != "https://example.com/vehicle.csv" {
		t.Fatalf("vehicles url = %q", p.Vehicles.Source.HTTP.URL)
	}
	if p.Vehicles.Source.HTTP.TimeoutSeconds != 60 || p.Vehicles.Source.HTTP.MaxRetries != 2 {
		t.Fatalf("vehicles http = %+v", p.Vehicles.Source.HTTP)
	}
	if p.Filter.Column != "police_force" || p.Filter.Equals != "14" {
		t.Fatalf("filter = %+v", p.Filter)
	}
	if p.Chunks.ScanChunkSize != 1000 || p.Chunks.LoadChunkSize != 500 {
		t.Fatalf("chunks = %+v", p.Chunks)
	}
	if p.Output.Kind != "csv" || p.Output.CSV.Path != "output/force14.csv" {
		t.Fatalf("output = %+v", p.Output)
	}
}

// TestOptionsGetters covers the typed getters, including JSON's float64
// number decoding and the defaults for missing or mistyped keys.
func TestOptionsGetters(t *testing.T) {
	t.Parallel()

	o := Options{
		"comma":      ";",
		"has_header": false,
		"chunk":      float64(250),
		"header_map": map[string]any{"Accident_Index": "accident_index", "bad": 7},
		"wrong":      []any{"x"},
	}

	if got := o.String("comma", ","); got != ";" {
		t.Fatalf("String(comma) = %q; want ;", got)
	}
	if got := o.String("missing", "dflt"); got != "dflt" {
		t.Fatalf("String(missing) = %q; want dflt", got)
	}
	if got := o.String("wrong", "dflt"); got != "dflt" {
		t.Fatalf("String(wrong type) = %q; want dflt", got)
	}
	if got := o.Bool("has_header", true); got {
		t.Fatalf("Bool(has_header) = true; want false")
	}
	if got := o.Bool("missing", true); !got {
		t.Fatalf("Bool(missing) = false; want default true")
	}
	if got := o.Int("chunk", 1); got != 250 {
		t.Fatalf("Int(chunk) = %d; want 250", got)
	}
	if got := o.Int("missing", 7); got != 7 {
		t.Fatalf("Int(missing) = %d; want 7", got)
	}
	if got := o.Rune("comma", ','); got != ';' {
		t.Fatalf("Rune(comma) = %q; want ;", got)
	}
	if got := o.Rune("missing", '\t'); got != '\t' {
		t.Fatalf("Rune(missing) = %q; want tab", got)
	}

	want := map[string]string{"Accident_Index": "accident_index"}
	if got := o.StringMap("header_map"); !reflect.DeepEqual(got, want) {
		t.Fatalf("StringMap(header_map) = %v; want %v", got, want)
	}
	if got := o.StringMap("missing"); len(got) != 0 {
		t.Fatalf("StringMap(missing) = %v; want empty", got)
	}
}

// TestOptionsNullSafe ensures a null or missing "options" object decodes to a
// usable empty map, never nil.
func TestOptionsNullSafe(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Options Options `json:"options"`
	}

	for _, js := range []string{`{"options": null}`, `{}`} {
		var w wrapper
		if err := json.Unmarshal([]byte(js), &w); err != nil {
			t.Fatalf("json.Unmarshal(%s): %v", js, err)
		}
		if js == `{}` && w.Options == nil {
			// Missing key skips UnmarshalJSON entirely; getters must still be
			// safe on the nil map.
			if got := w.Options.String("k", "d"); got != "d" {
				t.Fatalf("String on nil Options = %q; want d", got)
			}
			continue
		}
		if w.Options == nil {
			t.Fatalf("Options decoded from %s is nil", js)
		}
		if got := w.Options.Bool("has_header", true); !got {
			t.Fatalf("Bool default on empty Options = false; want true")
		}
	}
}
