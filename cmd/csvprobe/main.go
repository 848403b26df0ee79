// Command csvprobe samples the three linked CSV sources of a release and
// prints a pipeline config skeleton: canonicalized headers, inferred column
// types, and source blocks wired in. The three probes run concurrently; each
// only transfers a bounded prefix of its file.
//
// Example:
//
//	csvprobe -collisions=collision.csv -vehicles=vehicle.csv -casualties=casualty.csv -job=force14
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"stats19/internal/config"
	"stats19/internal/probe"
)

var (
	flagCollisions = flag.String("collisions", "", "collision CSV: local path or http(s) URL")
	flagVehicles   = flag.String("vehicles", "", "vehicle CSV: local path or http(s) URL")
	flagCasualties = flag.String("casualties", "", "casualty CSV: local path or http(s) URL")
	flagJob        = flag.String("job", "stats19", "job name written into the generated config")
	flagBytes      = flag.Int("bytes", probe.DefaultMaxBytes, "number of bytes to sample from the start of each file")
	flagDelimiter  = flag.String("delimiter", ",", "CSV field delimiter (single character)")
)

func main() {
	flag.Parse()

	if *flagCollisions == "" || *flagVehicles == "" || *flagCasualties == "" {
		fmt.Fprintln(os.Stderr, "csvprobe: -collisions, -vehicles and -casualties are all required")
		flag.Usage()
		os.Exit(2)
	}

	delim := ','
	if *flagDelimiter != "" {
		if r, _ := utf8.DecodeRuneInString(*flagDelimiter); r != utf8.RuneError {
			delim = r
		}
	}

	inputs := []struct {
		name   string
		target string
	}{
		{"collisions", *flagCollisions},
		{"vehicles", *flagVehicles},
		{"casualties", *flagCasualties},
	}

	datasets := make([]config.Dataset, len(inputs))
	g, ctx := errgroup.WithContext(context.Background())
	for i, in := range inputs {
		g.Go(func() error {
			opt := probe.Options{MaxBytes: *flagBytes, Delimiter: delim}
			if strings.HasPrefix(in.target, "http://") || strings.HasPrefix(in.target, "https://") {
				opt.URL = in.target
			} else {
				opt.Path = in.target
			}
			res, err := probe.Probe(ctx, opt)
			if err != nil {
				return fmt.Errorf("%s: %w", in.name, err)
			}
			log.Printf("%s: %d columns, %d sample rows", in.name, len(res.Headers), res.Rows)
			datasets[i] = res.Dataset(opt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("csvprobe: %v", err)
	}

	cfg := config.Pipeline{
		Job:        *flagJob,
		Collisions: datasets[0],
		Vehicles:   datasets[1],
		Casualties: datasets[2],
		Filter:     config.Filter{Column: "police_force", Equals: ""},
		Output: config.Output{
			Kind: "csv",
			CSV:  config.OutputCSV{Path: "output/" + *flagJob + ".csv"},
		},
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		log.Fatalf("csvprobe: encode config: %v", err)
	}
}
