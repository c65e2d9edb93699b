package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"

	"github.com/coreman2200/funtimes-motion/internal/anim"
	"github.com/coreman2200/funtimes-motion/internal/config"
	"github.com/coreman2200/funtimes-motion/internal/timeline"
)

// motionsim runs a program headless at a fixed step and prints the
// sampled track values, ending when every track has finished.
func main() {
	var programPath string
	var fps int
	var maxS float64
	flag.StringVar(&programPath, "program", "", "Path to program YAML (motion.v1)")
	flag.IntVar(&fps, "fps", 60, "Simulation frames per second")
	flag.Float64Var(&maxS, "max-s", 60, "Give up after this many simulated seconds")
	flag.Parse()

	if programPath == "" {
		log.Fatal("Provide -program path to a program YAML")
	}

	prog, err := config.LoadProgram(programPath)
	if err != nil {
		log.Fatalf("load program: %v", err)
	}

	tl := timeline.New()
	values := map[string]float64{}
	var anims []*anim.Animation[float64]
	for _, tc := range prog.Tracks {
		opts, err := tc.Options()
		if err != nil {
			log.Fatalf("track: %v", err)
		}
		name := tc.Name
		drv := &anim.ManualDriver{}
		opts.Driver = drv.Factory()
		opts.OnUpdate = func(v float64) { values[name] = v }
		a, err := anim.New(opts)
		if err != nil {
			log.Fatalf("track %s: %v", name, err)
		}
		a.AttachTimeline(tl)
		anims = append(anims, a)
	}
	tl.Start()

	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)

	dtMS := 1000.0 / float64(fps)
	for t := 0.0; t <= maxS*1000; t += dtMS {
		tl.Tick(dtMS)

		fmt.Printf("t=%7.3fs", tl.Now()/1000)
		for _, n := range names {
			fmt.Printf("  %s=%8.3f", n, values[n])
		}
		fmt.Println()

		done := true
		for _, a := range anims {
			if a.State() != anim.StateFinished {
				done = false
				break
			}
		}
		if done {
			fmt.Printf("Done at t=%.3fs\n", tl.Now()/1000)
			os.Exit(0)
		}
	}
	fmt.Printf("Gave up at t=%.1fs with tracks still running\n", math.Min(maxS, tl.Now()/1000))
	os.Exit(1)
}
