// Package probe samples the first bytes of a CSV source and derives a dataset
// configuration skeleton from it: canonical header names and inferred column
// types. It exists to bootstrap pipeline config files for new data releases,
// not to validate them.
package probe

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"stats19/internal/config"
	"stats19/internal/reader"
)

// DefaultMaxBytes bounds the sample read from a source when Options.MaxBytes
// is zero.
const DefaultMaxBytes = 1 << 20

// identifierColumns are always typed text so values like "2020010001" keep
// their leading zeros through the pipeline.
var identifierColumns = map[string]bool{
	"accident_index":     true,
	"accident_reference": true,
	"vehicle_reference":  true,
	"casualty_reference": true,
}

// Options controls a single probe.
type Options struct {
	// Path is a local file path; mutually exclusive with URL.
	Path string
	// URL is an HTTP(S) location; a Range request limits the transfer.
	URL string
	// MaxBytes caps the sampled prefix; 0 means DefaultMaxBytes.
	MaxBytes int
	// Delimiter is the CSV field separator; 0 means comma.
	Delimiter rune
	// MaxRows caps the number of data rows used for type inference.
	MaxRows int
}

// Result holds what the sample revealed about one source.
type Result struct {
	// Headers are the canonicalized column names in file order.
	Headers []string
	// Types maps non-text columns to "int" or "real". Text columns are
	// omitted: text is the pipeline default and listing it would only bloat
	// the generated config.
	Types map[string]string
	// Rows is the number of complete data rows seen in the sample.
	Rows int
}

// Probe samples one source and infers its dataset shape.
func Probe(ctx context.Context, opt Options) (*Result, error) {
	maxBytes := opt.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	var (
		data []byte
		err  error
	)
	switch {
	case opt.Path != "":
		data, err = sampleFile(opt.Path, maxBytes)
	case opt.URL != "":
		data, err = sampleHTTP(ctx, opt.URL, maxBytes)
	default:
		return nil, fmt.Errorf("probe: neither path nor url given")
	}
	if err != nil {
		return nil, err
	}

	headers, rows, err := readSample(data, opt.Delimiter, opt.MaxRows)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("probe: no header row in sample")
	}

	canonical := make([]string, len(headers))
	for i, h := range headers {
		canonical[i] = reader.NormalizeHeader(h)
	}

	types := map[string]string{}
	for i, name := range canonical {
		if identifierColumns[name] {
			continue
		}
		kind := inferColumn(column(rows, i))
		if kind != "text" {
			types[name] = kind
		}
	}

	return &Result{Headers: canonical, Types: types, Rows: len(rows)}, nil
}

// Dataset converts a probe result into a dataset config skeleton. The source
// block mirrors what was probed.
func (r *Result) Dataset(opt Options) config.Dataset {
	ds := config.Dataset{
		Parser: config.Parser{Kind: "csv", Options: config.Options{"has_header": true}},
		Types:  r.Types,
	}
	if opt.Path != "" {
		ds.Source = config.Source{Kind: "file", File: config.SourceFile{Path: opt.Path}}
	} else {
		ds.Source = config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: opt.URL}}
	}
	return ds
}

// sampleFile reads up to n bytes from the start of a local file.
func sampleFile(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(f, int64(n))); err != nil {
		return nil, fmt.Errorf("probe: read %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// sampleHTTP retrieves up to n bytes from url. It sets a Range header but
// also applies a client-side read limit, so it works even when the server
// ignores Range and returns 200 OK.
func sampleHTTP(ctx context.Context, url string, n int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", n-1))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("probe: %s: unexpected status %s", url, resp.Status)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, int64(n))); err != nil {
		return nil, fmt.Errorf("probe: read %s: %w", url, err)
	}
	return buf.Bytes(), nil
}

// readSample parses the sampled bytes best-effort: malformed lines and rows
// whose width differs from the header are skipped. The final row is usually a
// truncated record and falls out here naturally.
func readSample(data []byte, delim rune, maxRows int) ([]string, [][]string, error) {
	if delim == 0 {
		delim = ','
	}
	if maxRows <= 0 {
		maxRows = 10000
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var headers []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil, nil, nil
		}
		if err != nil || len(rec) == 0 {
			continue
		}
		headers = rec
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
		break
	}

	rows := make([][]string, 0, 256)
	for len(rows) < maxRows {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(rec) != len(headers) {
			continue
		}
		row := make([]string, len(rec))
		copy(row, rec)
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// column collects the i-th field of every sampled row.
func column(rows [][]string, i int) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if i < len(row) {
			out = append(out, row[i])
		}
	}
	return out
}

// inferColumn guesses "int", "real", or "text" for one column. Every
// non-empty value must satisfy the narrower type; an all-empty column is
// text.
func inferColumn(values []string) string {
	nonEmpty := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	if len(nonEmpty) == 0 {
		return "text"
	}
	if allMatch(nonEmpty, isInt) {
		return "int"
	}
	if allMatch(nonEmpty, isReal) {
		return "real"
	}
	return "text"
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

// isInt requires a signed base-10 integer that fits in int64. A leading zero
// on a multi-digit value means a code, not a number.
func isInt(s string) bool {
	if len(s) > 1 && (s[0] == '0' || (s[0] == '-' && s[1] == '0')) {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isReal accepts decimal or scientific notation floats. Plain integers never
// reach here: they already matched isInt. A leading zero ahead of another
// digit marks a code rather than a number, same as isInt.
func isReal(s string) bool {
	t := strings.TrimPrefix(s, "-")
	if len(t) > 1 && t[0] == '0' && t[1] != '.' {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
