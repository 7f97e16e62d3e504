package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/reftools/matchvoice/internal/simulate"
)

// Default configuration constants.
const (
	defaultNumUtterances = 200
	defaultNoiseRatio    = 0.2
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:9080", "Base URL of the service")
		matchID       = flag.String("match", "match-001", "Match ID to report against")
		numUtterances = flag.Int("utterances", defaultNumUtterances, "Number of utterances to generate and submit")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		noiseRatio    = flag.Float64("noise", defaultNoiseRatio, "Fraction of utterances without any event phrase")
		logFile       = flag.String("log", "", "Log file for simulation output (default: simulation_TIMESTAMP.log)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := simulate.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simulate.Config{
		BaseURL:       *baseURL,
		MatchID:       *matchID,
		NumUtterances: *numUtterances,
		Workers:       *workers,
		Timeout:       *timeout,
		NoiseRatio:    *noiseRatio,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
