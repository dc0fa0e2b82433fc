package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/finakit/finakit/internal/fina"
)

// BenchmarkConfig holds benchmark configuration
type BenchmarkConfig struct {
	DataDir    string
	Feed       string
	Npoints    int
	Interval   int64
	Iterations int
	Window     int64
	OutputStep int64
	NaNRatio   float64
	KeepFiles  bool
}

// Result represents benchmark results for one query shape
type Result struct {
	Operation  string
	TotalOps   int
	Rows       int
	Throughput float64 // queries/sec
	AvgLatency float64 // ms
	MinLatency float64 // ms
	MaxLatency float64 // ms
	P50Latency float64 // ms
	P95Latency float64 // ms
	P99Latency float64 // ms
}

func main() {
	config := BenchmarkConfig{}
	flag.StringVar(&config.DataDir, "data-dir", "", "Data directory (default: temp dir, removed afterwards)")
	flag.StringVar(&config.Feed, "feed", "bench_feed", "Feed name")
	flag.IntVar(&config.Npoints, "points", 2592000, "Points in the generated feed (default: 30 days at 1s)")
	flag.Int64Var(&config.Interval, "interval", 1, "Source interval in seconds")
	flag.IntVar(&config.Iterations, "iterations", 50, "Queries per shape")
	flag.Int64Var(&config.Window, "window", 86400, "Query window in seconds")
	flag.Int64Var(&config.OutputStep, "output-step", 600, "Output interval in seconds")
	flag.Float64Var(&config.NaNRatio, "nan-ratio", 0.05, "Fraction of missing samples")
	flag.BoolVar(&config.KeepFiles, "keep-files", false, "Keep the generated feed files")
	flag.Parse()

	fmt.Printf("=== Fina Benchmark Tool ===\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Feed: %s\n", config.Feed)
	fmt.Printf("  Points: %d\n", config.Npoints)
	fmt.Printf("  Interval: %ds\n", config.Interval)
	fmt.Printf("  Iterations: %d\n", config.Iterations)
	fmt.Printf("  Window: %ds\n", config.Window)
	fmt.Printf("  Output Step: %ds\n", config.OutputStep)
	fmt.Printf("  NaN Ratio: %.2f\n", config.NaNRatio)
	fmt.Printf("\n")

	cleanup := func() {}
	if config.DataDir == "" {
		dir, err := os.MkdirTemp("", "fina_bench")
		if err != nil {
			fmt.Printf("Failed to create temp dir: %v\n", err)
			os.Exit(1)
		}
		config.DataDir = dir
		if !config.KeepFiles {
			cleanup = func() { _ = os.RemoveAll(dir) }
		}
	}
	defer cleanup()

	start := time.Now().Unix() - int64(config.Npoints)*config.Interval
	fmt.Printf("Generating %d points under %s...\n", config.Npoints, config.DataDir)
	if err := generateFeed(config, uint32(start)); err != nil {
		fmt.Printf("Failed to generate feed: %v\n", err)
		os.Exit(1)
	}

	f := fina.New(config.Feed, config.DataDir)
	meta, err := f.Meta()
	if err != nil {
		fmt.Printf("Failed to read generated feed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Feed covers %s to %s\n\n",
		time.Unix(meta.StartTime, 0).UTC().Format(time.RFC3339),
		time.Unix(meta.EndTime, 0).UTC().Format(time.RFC3339))

	shapes := []struct {
		name  string
		query fina.SearchQuery
	}{
		{"values/complete", fina.SearchQuery{
			TimeWindow:    config.Window,
			TimeInterval:  config.OutputStep,
			OutputType:    fina.OutputValues,
			OutputAverage: fina.AverageComplete,
			TimeRef:       fina.RefByTime,
		}},
		{"time_series_min_max/partial", fina.SearchQuery{
			TimeWindow:    config.Window,
			TimeInterval:  config.OutputStep,
			OutputType:    fina.OutputTimeSeriesMinMax,
			OutputAverage: fina.AveragePartial,
			TimeRef:       fina.RefByTime,
		}},
		{"integrity/as_is", fina.SearchQuery{
			TimeWindow:    config.Window,
			TimeInterval:  config.OutputStep,
			OutputType:    fina.OutputIntegrity,
			OutputAverage: fina.AverageAsIs,
			TimeRef:       fina.RefBySearch,
		}},
	}

	fmt.Printf("=== Benchmark Results ===\n")
	for _, shape := range shapes {
		result, err := runShape(f, meta, shape.query, shape.name, config)
		if err != nil {
			fmt.Printf("Shape %s failed: %v\n", shape.name, err)
			os.Exit(1)
		}
		fmt.Println()
		displayResult(result)
	}
}

// generateFeed writes a synthetic .meta/.dat pair: a daily sine wave with
// noise, with a fraction of samples knocked out to NaN.
func generateFeed(config BenchmarkConfig, startTime uint32) error {
	meta := make([]byte, 16)
	binary.LittleEndian.PutUint32(meta[8:], uint32(config.Interval))
	binary.LittleEndian.PutUint32(meta[12:], startTime)
	if err := os.WriteFile(filepath.Join(config.DataDir, config.Feed+".meta"), meta, 0o644); err != nil {
		return err
	}

	day := float64(86400 / config.Interval)
	dat := make([]byte, config.Npoints*4)
	for i := 0; i < config.Npoints; i++ {
		v := float32(math.NaN())
		if rand.Float64() >= config.NaNRatio {
			v = float32(1000*math.Sin(2*math.Pi*float64(i)/day) + 50*rand.Float64())
		}
		binary.LittleEndian.PutUint32(dat[i*4:], math.Float32bits(v))
	}
	return os.WriteFile(filepath.Join(config.DataDir, config.Feed+".dat"), dat, 0o644)
}

// runShape runs one query shape repeatedly at random start offsets.
func runShape(f *fina.FinaData, meta fina.Meta, q fina.SearchQuery, name string, config BenchmarkConfig) (Result, error) {
	span := meta.EndTime - meta.StartTime - config.Window
	if span < 0 {
		span = 0
	}

	latencies := make([]float64, 0, config.Iterations)
	rows := 0
	wall := time.Now()
	for i := 0; i < config.Iterations; i++ {
		q.StartTime = meta.StartTime + rand.Int63n(span+1)
		begin := time.Now()
		result, err := f.Values(q)
		if err != nil {
			return Result{}, err
		}
		latencies = append(latencies, float64(time.Since(begin).Microseconds())/1000.0)
		rows += len(result)
	}
	elapsed := time.Since(wall)

	sort.Float64s(latencies)
	result := Result{
		Operation:  name,
		TotalOps:   config.Iterations,
		Rows:       rows,
		Throughput: float64(config.Iterations) / elapsed.Seconds(),
		MinLatency: latencies[0],
		MaxLatency: latencies[len(latencies)-1],
		P50Latency: percentile(latencies, 50),
		P95Latency: percentile(latencies, 95),
		P99Latency: percentile(latencies, 99),
	}
	var sum float64
	for _, lat := range latencies {
		sum += lat
	}
	result.AvgLatency = sum / float64(len(latencies))
	return result, nil
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Ceil(float64(len(sorted)) * p / 100.0))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func displayResult(r Result) {
	fmt.Printf("=== %s ===\n", r.Operation)
	fmt.Printf("Queries:    %d\n", r.TotalOps)
	fmt.Printf("Rows:       %d\n", r.Rows)
	fmt.Printf("Throughput: %.2f queries/sec\n", r.Throughput)
	fmt.Printf("\nLatency (ms):\n")
	fmt.Printf("  Min:  %.2f\n", r.MinLatency)
	fmt.Printf("  Avg:  %.2f\n", r.AvgLatency)
	fmt.Printf("  P50:  %.2f\n", r.P50Latency)
	fmt.Printf("  P95:  %.2f\n", r.P95Latency)
	fmt.Printf("  P99:  %.2f\n", r.P99Latency)
	fmt.Printf("  Max:  %.2f\n", r.MaxLatency)
}
