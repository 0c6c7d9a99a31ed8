// Command simulate runs a simulation headless and prints the compiled
// metrics as JSON. By default it runs as fast as possible; -speed paces
// the run against wall-clock time with periodic progress logging.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"scooter_simulator/internal/config"
	"scooter_simulator/internal/simulator"
)

func main() {
	configPath := flag.String("config", "", "optional simulation config file (JSON)")
	seed := flag.Int64("seed", 0, "random seed (0 = non-reproducible)")
	hours := flag.Float64("hours", 0, "override simulation duration in hours")
	speed := flag.Float64("speed", 0, "pace the run at this multiplier of real time (0 = unpaced)")
	full := flag.Bool("full", false, "print the full result including the final world state")
	flag.Parse()

	req := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		req = loaded
	}
	if *hours > 0 {
		req.DurationHours = *hours
	}
	if *seed != 0 {
		s := *seed
		req.RandomSeed = &s
	}

	engine, err := simulator.NewEngine(req.ToSimulation())
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	if err := engine.Initialize(); err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	var result simulator.Result
	if *speed > 0 {
		result = engine.RunPaced(*speed, time.Second, func(s simulator.Snapshot) {
			log.Printf("t=%.1fs (%s)", s.CurrentTime, simulator.FormatSimTime(s.CurrentTime))
		})
	} else {
		result = engine.RunSync()
	}
	log.Printf("Simulation %s after %d events at t=%.1fs (%s)",
		result.Status, result.EventCount, result.SimulationTime,
		simulator.FormatSimTime(result.SimulationTime))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *full {
		if err := enc.Encode(result); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := enc.Encode(result.Metrics); err != nil {
		log.Fatal(err)
	}
}
