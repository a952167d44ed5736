// Package main times pantry CLI commands against the available store backends.
// Each command runs several times per backend; the first successful run counts
// as cold and the rest are averaged as warm. Results are written to a CSV file.
//
// Prerequisites:
// - pantry binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory used for the SQLite database and config (defaults to a temp dir)
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the timings of one command on one backend.
type BenchmarkResult struct {
	Backend  string
	Command  string
	ColdTime string
	WarmTime string
}

// BenchmarkCase is a single pantry invocation and the text expected in its output.
type BenchmarkCase struct {
	Name   string
	Args   []string
	Expect string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir  string
	Timeout  time.Duration
	Runs     int
	Backends []string
	Cases    []BenchmarkCase
}

func main() {
	workDir := ""
	switch len(os.Args) {
	case 1:
		dir, err := os.MkdirTemp("", "pantry-bench-")
		if err != nil {
			fmt.Printf("Failed to create work dir: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = os.RemoveAll(dir) }()
		workDir = dir
	case 2:
		workDir = os.Args[1]
	default:
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:  workDir,
		Timeout:  time.Minute,
		Runs:     5,
		Backends: []string{"memory", "sqlite"},
		Cases: []BenchmarkCase{
			{Name: "list", Args: []string{"recipes", "list", "--page-size", "10"}, Expect: "Listed in"},
			{Name: "search", Args: []string{"recipes", "search", "chicken"}, Expect: "Found"},
			{Name: "get", Args: []string{"recipes", "get", "1"}, Expect: "#1"},
			{Name: "toggle", Args: []string{"favorites", "toggle", "1"}, Expect: "favorites"},
			{Name: "favorites", Args: []string{"favorites", "list"}, Expect: "favorite"},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the pantry binary and work dir exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("pantry"); err != nil {
		return fmt.Errorf("pantry binary not found in PATH")
	}
	if _, err := os.Stat(config.WorkDir); os.IsNotExist(err) {
		return fmt.Errorf("work dir not found at %s", config.WorkDir)
	}
	return nil
}

// runBenchmarks executes every case against every backend
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d backends, %d cases, %d runs each, %v timeout\n",
		len(config.Backends), len(config.Cases), config.Runs, config.Timeout)

	for _, backend := range config.Backends {
		fmt.Printf("Benchmarking %s backend\n", backend)
		for _, bc := range config.Cases {
			results = append(results, runBenchmarkCase(config, backend, bc))
		}
	}

	return results
}

// runBenchmarkCase runs one case on one backend and summarizes cold and warm timings
func runBenchmarkCase(config BenchmarkConfig, backend string, bc BenchmarkCase) BenchmarkResult {
	fmt.Printf("  %s (%s)\n", bc.Name, strings.Join(bc.Args, " "))

	coldTime, warmTimes := runBenchmark(config, backend, bc)

	coldStr := "TIMEOUT"
	if coldTime > 0 {
		coldStr = fmt.Sprintf("%.3fs", coldTime)
	}
	warmStr := "TIMEOUT"
	if len(warmTimes) > 0 {
		var sum float64
		for _, t := range warmTimes {
			sum += t
		}
		warmStr = fmt.Sprintf("%.3fs", sum/float64(len(warmTimes)))
	}

	fmt.Printf("    Cold: %s, Warm average: %s\n", coldStr, warmStr)

	return BenchmarkResult{
		Backend:  backend,
		Command:  bc.Name,
		ColdTime: coldStr,
		WarmTime: warmStr,
	}
}

// runBenchmark executes a pantry command several times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, backend string, bc BenchmarkCase) (coldTime float64, warmTimes []float64) {
	args := append([]string{"--store-backend", backend}, bc.Args...)
	if backend == "sqlite" {
		args = append(args, "--store-db-connect", filepath.Join(config.WorkDir, "pantry-bench.db"))
	}

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()

		cmd := exec.Command("pantry", args...)
		cmd.Dir = config.WorkDir
		cmd.Env = append(os.Environ(), "HOME="+config.WorkDir)

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && strings.Contains(string(output), bc.Expect) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("pantry_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"backend", "cmd", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Backend, result.Command, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final results grouped by backend
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, backend := range config.Backends {
		fmt.Printf("%s:\n", backend)
		for _, result := range results {
			if result.Backend == backend {
				fmt.Printf("  %-10s: Cold: %s, Warm: %s\n", result.Command, result.ColdTime, result.WarmTime)
			}
		}
	}
}
