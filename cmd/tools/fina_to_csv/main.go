package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/finakit/finakit/internal/config"
	"github.com/finakit/finakit/internal/fina"
	"github.com/finakit/finakit/internal/logging"
)

func main() {
	// Command line flags
	feed := flag.String("feed", "", "Feed name (the .meta/.dat base name)")
	dataDir := flag.String("data-dir", "", "Data directory (overrides config)")
	configPath := flag.String("config", "", "Config file path (optional)")
	output := flag.String("output", "", "Output CSV path (default: <feed>.csv)")
	start := flag.String("start", "", "Start date, yyyy-mm-dd hh:mm:ss (default: start of feed)")
	end := flag.String("end", "", "End date, yyyy-mm-dd hh:mm:ss (default: end of feed)")
	interval := flag.Int64("interval", 0, "Output interval in seconds (0 = source interval)")
	outputType := flag.String("type", "time_series", "Output type (values, values_min_max, time_series, time_series_min_max, integrity)")
	average := flag.String("average", "complete", "Averaging policy (complete, partial, as_is)")
	decimals := flag.Int("decimals", -1, "Round values to N decimals (-1 = no rounding)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	if *feed == "" {
		log.Fatal("Error: -feed parameter is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v\n", err)
	}
	if *dataDir != "" {
		cfg.Engine.DataDir = *dataDir
	}

	logger := logging.Nop()
	if *verbose {
		logger = logging.NewDevelopment()
	}

	q := fina.SearchQuery{
		TimeInterval:  *interval,
		OutputAverage: parseAverage(*average),
		TimeRef:       fina.RefByTime,
	}
	q.OutputType, err = fina.ParseOutputType(*outputType)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}
	if *decimals >= 0 {
		q.NDecimals = decimals
	}

	f := fina.New(*feed, cfg.Engine.DataDir,
		fina.WithLimits(fina.Limits{MaxMetaSize: cfg.Engine.MaxMetaSize, MaxDataSize: cfg.Engine.MaxDataSize}),
		fina.WithLogger(logger))

	meta, err := f.Meta()
	if err != nil {
		log.Fatalf("Error reading feed metadata: %v\n", err)
	}
	fmt.Printf("Feed %s: %d points, interval %ds, %s to %s\n",
		*feed, meta.Npoints, meta.Interval,
		time.Unix(meta.StartTime, 0).UTC().Format(time.RFC3339),
		time.Unix(meta.EndTime, 0).UTC().Format(time.RFC3339))

	rows, err := export(f, meta, q, *start, *end)
	if err != nil {
		log.Fatalf("Error reading data: %v\n", err)
	}
	if len(rows) == 0 {
		log.Printf("Warning: no rows in the requested range\n")
		return
	}

	outputFile := *output
	if outputFile == "" {
		outputFile = *feed + ".csv"
	}
	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Error creating output directory: %v\n", err)
		}
	}

	if err := writeCSV(outputFile, q.OutputType, rows); err != nil {
		log.Fatalf("Error exporting to CSV: %v\n", err)
	}

	fmt.Printf("Exported %d rows to %s\n", len(rows), outputFile)
}

// export runs the query, defaulting the date range to the whole feed.
func export(f *fina.FinaData, meta fina.Meta, q fina.SearchQuery, start, end string) ([]fina.OutputRow, error) {
	if start == "" && end == "" {
		q.StartTime = meta.StartTime
		q.TimeWindow = 0
		return f.Values(q)
	}
	if end == "" {
		from, err := fina.ParseDate(start, "")
		if err != nil {
			return nil, err
		}
		window := meta.EndTime + meta.Interval - from
		return f.ValuesByDate(start, "", window, q)
	}
	if start == "" {
		start = time.Unix(meta.StartTime, 0).UTC().Format(time.DateTime)
	}
	return f.ValuesByDateRange(start, end, "", q)
}

func parseAverage(s string) fina.OutputAverage {
	switch s {
	case "complete":
		return fina.AverageComplete
	case "partial":
		return fina.AveragePartial
	case "as_is":
		return fina.AverageAsIs
	default:
		log.Fatalf("Error: invalid averaging policy '%s'. Valid options: complete, partial, as_is", s)
		return 0
	}
}

// writeCSV writes rows with a header matching the output type's columns.
func writeCSV(filename string, ot fina.OutputType, rows []fina.OutputRow) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader(ot)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, ot.Columns())
	for _, row := range rows {
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func csvHeader(ot fina.OutputType) []string {
	switch ot {
	case fina.OutputValues:
		return []string{"mean"}
	case fina.OutputValuesMinMax:
		return []string{"min", "mean", "max"}
	case fina.OutputTimeSeries:
		return []string{"time", "mean"}
	case fina.OutputTimeSeriesMinMax:
		return []string{"time", "min", "mean", "max"}
	default:
		return []string{"time", "finite", "total"}
	}
}
