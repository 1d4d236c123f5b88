package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/ecsenv/ecs"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	churn := flag.Float64("churn", 0.2, "Fraction of entities that expire and get respawned.")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for the entity generator.")
	profileMode := flag.String("profile", "none", "Profile the run: none, cpu or mem.")
	profilePath := flag.String("profile-path", ".", "Directory the profile is written to.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	switch *profileMode {
	case "none":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*profilePath), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath(*profilePath), profile.NoShutdownHook).Stop()
	default:
		log.Fatalf("Unknown profile mode %q", *profileMode)
	}

	log.Println("Starting ECS stress test...")

	logger := log.New(os.Stderr, "", log.LstdFlags)
	log.Printf("Populating environment with %d entities...\n", *entityCount)
	env, stats, err := newWorld(*entityCount, *churn, *seed,
		ecs.WithLogger(logger),
		ecs.WithSlowSystemThreshold(50*time.Millisecond),
	)
	if err != nil {
		log.Fatalf("Failed to build world: %v", err)
	}
	log.Println("Population complete.")

	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Churn:          *churn,
		Seed:           *seed,
		Systems:        env.Scheduler().Len(),
		GCPauseMetrics: *gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running simulation for %s...\n", *duration)
	run(env, *duration, report)

	runtime.ReadMemStats(&report.MemStatsEnd)
	report.World = *stats.Get()
	report.Storage = env.Storage().CollectStats()
	report.Scheduler = env.Scheduler().Stats()

	log.Println("Simulation finished.")

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")

	log.Println("Stress test complete.")
}

// run updates env back to back until duration has passed, recording the
// time of every update.
func run(env *ecs.Environment, duration time.Duration, report *Report) {
	startTime := time.Now()
	deadline := startTime.Add(duration)
	lastFrameTime := startTime

	for time.Now().Before(deadline) {
		deltaTime := time.Since(lastFrameTime)
		lastFrameTime = time.Now()

		updateStart := time.Now()
		if err := env.Update(deltaTime.Seconds()); err != nil {
			log.Printf("Update failed: %v", err)
		}
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		report.TotalUpdates++
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
}
