// Package pipeline wires the filter-and-join run end-to-end: scan the
// collision source for the relevant key set, re-load the three datasets gated
// by that set, join them into one denormalized table, and write it to the
// configured sink.
//
// Execution is strictly sequential. Each stage returns its result to the next
// one; at most one input stream is open at any point, and peak memory is
// bounded by one chunk during the scan plus the filtered survivor frames.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"stats19/internal/config"
	"stats19/internal/datasource"
	"stats19/internal/datasource/file"
	"stats19/internal/datasource/httpds"
	"stats19/internal/filter"
	"stats19/internal/frame"
	"stats19/internal/join"
	"stats19/internal/metrics"
	"stats19/internal/reader"
	"stats19/internal/sink"
	"stats19/internal/storage"
)

// Default chunk sizes for the two streaming passes. The scan pass only holds
// one chunk plus the key set, so it can afford larger frames than the re-load
// passes, which accumulate survivors.
const (
	defaultScanChunkSize = 100000
	defaultLoadChunkSize = 50000
)

// idOrder is the canonical front of the output table. Identifier columns
// present in the joined frame are moved to the front in this order; all other
// columns keep their relative order.
var idOrder = []string{
	"accident_index",
	"accident_year",
	"accident_reference",
	"vehicle_reference",
	"casualty_reference",
}

// dedupeRules removes the right-side copies of columns that all three
// datasets carry. They are byte-identical to the left-side values for every
// matched row, so dropping them loses nothing.
var dedupeRules = []join.Rule{
	{Name: "accident_year" + join.DefaultSuffix, Action: join.ActionDrop},
	{Name: "accident_reference" + join.DefaultSuffix, Action: join.ActionDrop},
}

// Result summarizes a completed run.
type Result struct {
	Keys             int   // size of the matched key set
	Scanned          int64 // collision rows examined by the scan pass
	CasualtiesLoaded int64
	VehiclesLoaded   int64
	CollisionsLoaded int64
	Joined           int64 // rows in the final joined table
	Written          int64 // rows persisted by the sink
	Checksum         uint64 // xxh3 of the CSV output; zero for database sinks
}

// Run executes the pipeline described by cfg and returns its summary.
//
// When the predicate matches no collision, or no casualty survives the key
// filter, Run returns a zero-row Result without opening the remaining inputs
// or the sink.
func Run(ctx context.Context, cfg config.Pipeline) (*Result, error) {
	scanChunk := cfg.Chunks.ScanChunkSize
	if scanChunk <= 0 {
		scanChunk = defaultScanChunkSize
	}
	loadChunk := cfg.Chunks.LoadChunkSize
	if loadChunk <= 0 {
		loadChunk = defaultLoadChunkSize
	}

	res := &Result{}

	// Pass 1: stream collisions once and collect the relevant accident_index
	// values.
	keys, scanned, err := scanKeys(ctx, cfg, scanChunk)
	res.Scanned = scanned
	if err != nil {
		return nil, err
	}
	res.Keys = len(keys)
	metrics.RecordKeys(cfg.Job, int64(len(keys)))
	metrics.RecordRows(cfg.Job, "scanned", scanned)
	log.Printf("scan: %d rows examined, %d keys matched %s == %q",
		scanned, len(keys), cfg.Filter.Column, cfg.Filter.Equals)

	if len(keys) == 0 {
		log.Printf("no collisions matched; skipping loads and output")
		return res, nil
	}

	// Pass 2: re-stream each dataset gated by the key set. Casualties come
	// first: every output row is a casualty row, so an empty casualty frame
	// makes the remaining loads pointless.
	casualties, n, err := loadDataset(ctx, cfg, "casualties", cfg.Casualties, keys, loadChunk)
	res.CasualtiesLoaded = n
	if err != nil {
		return nil, err
	}
	if casualties.Len() == 0 {
		log.Printf("no casualties in matched collisions; skipping remaining loads and output")
		return res, nil
	}

	vehicles, n, err := loadDataset(ctx, cfg, "vehicles", cfg.Vehicles, keys, loadChunk)
	res.VehiclesLoaded = n
	if err != nil {
		return nil, err
	}

	collisions, n, err := loadDataset(ctx, cfg, "collisions", cfg.Collisions, keys, loadChunk)
	res.CollisionsLoaded = n
	if err != nil {
		return nil, err
	}

	// Join and normalize.
	start := time.Now()
	out, err := joinAll(casualties, vehicles, collisions)
	metrics.RecordStage(cfg.Job, "join", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	res.Joined = int64(out.Len())
	metrics.RecordRows(cfg.Job, "joined", res.Joined)
	log.Printf("join: %d rows, %d columns", out.Len(), len(out.Columns))

	// Persist.
	start = time.Now()
	written, checksum, err := writeOutput(ctx, cfg, out)
	metrics.RecordStage(cfg.Job, "write", err, time.Since(start))
	res.Written = written
	res.Checksum = checksum
	if err != nil {
		return nil, err
	}
	metrics.RecordRows(cfg.Job, "written", written)
	log.Printf("write: %d rows to %s sink", written, cfg.Output.Kind)

	log.Printf("summary: job=%s scanned=%d keys=%d casualties=%d vehicles=%d collisions=%d joined=%d written=%d",
		cfg.Job, res.Scanned, res.Keys, res.CasualtiesLoaded, res.VehiclesLoaded,
		res.CollisionsLoaded, res.Joined, res.Written)

	return res, nil
}

// scanKeys runs the key-collection pass over the collision source.
func scanKeys(ctx context.Context, cfg config.Pipeline, chunkSize int) (filter.KeySet, int64, error) {
	start := time.Now()
	keys, scanned, err := func() (filter.KeySet, int64, error) {
		rd, err := openReader(ctx, cfg.Collisions, chunkSize)
		if err != nil {
			return nil, 0, fmt.Errorf("collisions: %w", err)
		}
		pred := filter.ColumnEquals(cfg.Filter.Column, cfg.Filter.Equals)
		keys, scanned, err := filter.CollectKeys(ctx, rd, "accident_index", pred)
		if err != nil {
			return nil, scanned, fmt.Errorf("scan collisions: %w", err)
		}
		return keys, scanned, nil
	}()
	metrics.RecordStage(cfg.Job, "scan", err, time.Since(start))
	return keys, scanned, err
}

// loadDataset re-streams one dataset and keeps the rows whose accident_index
// is in keys. The returned count is rows kept, not rows scanned.
func loadDataset(
	ctx context.Context,
	cfg config.Pipeline,
	name string,
	ds config.Dataset,
	keys filter.KeySet,
	chunkSize int,
) (*frame.Frame, int64, error) {
	start := time.Now()
	f, scanned, err := func() (*frame.Frame, int64, error) {
		rd, err := openReader(ctx, ds, chunkSize)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", name, err)
		}
		f, scanned, err := filter.Reload(ctx, rd, "accident_index", keys)
		if err != nil {
			return nil, scanned, fmt.Errorf("load %s: %w", name, err)
		}
		return f, scanned, nil
	}()
	metrics.RecordStage(cfg.Job, "load_"+name, err, time.Since(start))
	if err != nil {
		return nil, 0, err
	}
	kept := int64(f.Len())
	metrics.RecordRows(cfg.Job, name+"_loaded", kept)
	log.Printf("load %s: %d of %d rows kept", name, kept, scanned)
	return f, kept, nil
}

// joinAll combines the three survivor frames into one table:
// casualties x collisions on accident_index, then x vehicles on
// (accident_index, vehicle_reference). Casualty rows with a null or blank
// vehicle_reference never match the second join and fall out here.
func joinAll(casualties, vehicles, collisions *frame.Frame) (*frame.Frame, error) {
	out, err := join.Inner(casualties, collisions, []string{"accident_index"}, join.DefaultSuffix)
	if err != nil {
		return nil, fmt.Errorf("join casualties/collisions: %w", err)
	}
	out, err = join.ApplyRules(out, dedupeRules)
	if err != nil {
		return nil, fmt.Errorf("join casualties/collisions: %w", err)
	}

	out, err = join.Inner(out, vehicles, []string{"accident_index", "vehicle_reference"}, join.DefaultSuffix)
	if err != nil {
		return nil, fmt.Errorf("join vehicles: %w", err)
	}
	out, err = join.ApplyRules(out, dedupeRules)
	if err != nil {
		return nil, fmt.Errorf("join vehicles: %w", err)
	}

	return join.Reorder(out, idOrder), nil
}

// writeOutput builds the configured sink and writes the joined frame.
// The checksum is only meaningful for the CSV sink.
func writeOutput(ctx context.Context, cfg config.Pipeline, f *frame.Frame) (int64, uint64, error) {
	switch cfg.Output.Kind {
	case "csv":
		s := sink.NewCSV(cfg.Output.CSV.Path)
		n, err := s.Write(ctx, f)
		if err != nil {
			return n, 0, fmt.Errorf("csv sink: %w", err)
		}
		return n, s.Checksum(), s.Close()

	default:
		repo, err := storage.New(ctx, cfg.Output.Kind, storage.Config{
			DSN:   cfg.Output.DB.DSN,
			Table: cfg.Output.DB.Table,
		})
		if err != nil {
			return 0, 0, fmt.Errorf("open %s sink: %w", cfg.Output.Kind, err)
		}
		s := sink.NewDB(repo, cfg.Output.DB.AutoCreateTable, cfg.Output.DB.BatchSize)
		n, err := s.Write(ctx, f)
		if err != nil {
			s.Close()
			return n, 0, fmt.Errorf("%s sink: %w", cfg.Output.Kind, err)
		}
		return n, 0, s.Close()
	}
}

// openReader builds the dataset's source and wraps it in a chunked reader.
func openReader(ctx context.Context, ds config.Dataset, chunkSize int) (*reader.ChunkReader, error) {
	src, err := newSource(ds.Source)
	if err != nil {
		return nil, err
	}
	return reader.NewChunkReader(ctx, src, ds.Parser.Options, ds.Types, chunkSize)
}

// newSource maps the source config onto a datasource implementation.
func newSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "", "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		client := httpds.NewClient(httpds.Config{
			Timeout:    time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries: s.HTTP.MaxRetries,
		})
		return httpds.NewRemote(client, s.HTTP.URL), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", s.Kind)
	}
}
