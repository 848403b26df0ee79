package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleCSV = "Accident_Index,Police Force,Speed Limit,Longitude,Notes\n" +
	"2020010001,14,30,-0.2,hello\n" +
	"2020010002,7,60,-1.5,\n" +
	"2020010003,14,30,0.4,world\n"

// TestProbeFile checks header canonicalization and type inference from a
// local sample.
func TestProbeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "collision.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res, err := Probe(context.Background(), Options{Path: path})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	wantHeaders := []string{"accident_index", "police_force", "speed_limit", "longitude", "notes"}
	if !reflect.DeepEqual(res.Headers, wantHeaders) {
		t.Fatalf("headers = %v; want %v", res.Headers, wantHeaders)
	}
	if res.Rows != 3 {
		t.Fatalf("rows = %d; want 3", res.Rows)
	}

	// accident_index is an identifier and stays untyped (text); notes is
	// plain text and also omitted.
	wantTypes := map[string]string{
		"police_force": "int",
		"speed_limit":  "int",
		"longitude":    "real",
	}
	if !reflect.DeepEqual(res.Types, wantTypes) {
		t.Fatalf("types = %v; want %v", res.Types, wantTypes)
	}
}

// TestProbeHTTP checks sampling over HTTP and the generated dataset skeleton.
func TestProbeHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	opt := Options{URL: srv.URL + "/collision.csv"}
	res, err := Probe(context.Background(), opt)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(res.Headers) != 5 {
		t.Fatalf("headers = %v; want 5 columns", res.Headers)
	}

	ds := res.Dataset(opt)
	if ds.Source.Kind != "http" || ds.Source.HTTP.URL != opt.URL {
		t.Fatalf("dataset source = %+v", ds.Source)
	}
	if ds.Parser.Kind != "csv" || !ds.Parser.Options.Bool("has_header", false) {
		t.Fatalf("dataset parser = %+v", ds.Parser)
	}
}

// TestProbeTruncatedSample checks the final partial record is ignored rather
// than skewing inference.
func TestProbeTruncatedSample(t *testing.T) {
	t.Parallel()

	// Cut mid-row: the "60" cell is truncated to "6".
	truncated := sampleCSV[:len(sampleCSV)-30]
	path := filepath.Join(t.TempDir(), "cut.csv")
	if err := os.WriteFile(path, []byte(truncated), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res, err := Probe(context.Background(), Options{Path: path})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(res.Headers) != 5 {
		t.Fatalf("headers = %v; want 5 columns", res.Headers)
	}
}

// TestInferColumn covers the per-column type vote, including the
// leading-zero-means-code rule.
func TestInferColumn(t *testing.T) {
	t.Parallel()

	type tc struct {
		name string
		in   []string
		want string
	}
	cases := []tc{
		{"ints", []string{"1", "42", "-7"}, "int"},
		{"ints with blanks", []string{"1", "", "2"}, "int"},
		{"reals", []string{"1.5", "2", "3e2"}, "real"},
		{"leading zero is text", []string{"010001", "010002"}, "text"},
		{"zero before decimal point is real", []string{"0.5", "-0.25"}, "real"},
		{"signed leading zero is text", []string{"-010001"}, "text"},
		{"mixed is text", []string{"1", "x"}, "text"},
		{"all empty is text", []string{"", " "}, "text"},
	}
	for _, c := range cases {
		if got := inferColumn(c.in); got != c.want {
			t.Fatalf("inferColumn(%s) = %q; want %q", c.name, got, c.want)
		}
	}
}

// TestProbeNoInput checks the argument guard.
func TestProbeNoInput(t *testing.T) {
	t.Parallel()

	if _, err := Probe(context.Background(), Options{}); err == nil {
		t.Fatalf("Probe without path or url: expected error, got nil")
	}
}
