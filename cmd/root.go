package cmd

import (
	"fmt"
	"math"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kanduri/arbor/sim"
	"github.com/kanduri/arbor/sim/cell"
)

var (
	// CLI flags for the network scenario
	cells           int     // Total number of cells across all domains
	synapsesPerCell int     // Synaptic fan-in per cell
	allToAll        bool    // Connect each cell to cells 0..n in order instead of random sources
	minDelay        float64 // Base synaptic delay (ms); the network-wide minimum
	weightPerCell   float64 // Total synaptic weight per cell
	tfinal          float64 // Simulated end time (ms)
	dt              float64 // Integration step (ms)
	sampleDt        float64 // Probe sampling interval (ms), 0 disables probes
	seed            int64   // Seed offset for connectivity generation
	spikeStride     int     // Every spikeStride-th cell fires at t=0

	// CLI flags for execution
	domains     int    // Number of in-process domains
	workers     int    // Parallel advance width per domain (0 = unbounded)
	traceDir    string // Directory for probe trace JSON dumps ("" disables)
	metricsAddr string // Address for the Prometheus /metrics endpoint ("" disables)
	logLevel    string // Log verbosity level

	// CLI flags for scenario presets
	scenarioFilePath string // YAML file with named scenario presets
	scenarioName     string // Preset to load from the scenario file
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Distributed spiking neural network simulator",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := sim.Config{
			Cells:           cells,
			SynapsesPerCell: synapsesPerCell,
			AllToAll:        allToAll,
			MinDelay:        minDelay,
			WeightPerCell:   weightPerCell,
			TFinal:          tfinal,
			Dt:              dt,
			SampleDt:        sampleDt,
			Workers:         workers,
			Seed:            seed,
		}
		if scenarioFilePath != "" {
			preset := GetScenarioConfig(scenarioFilePath, scenarioName, cfg)
			if preset == nil {
				logrus.Fatalf("Scenario %q not found in %s", scenarioName, scenarioFilePath)
			}
			cfg = *preset
		}
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		collector, err := sim.NewCollector(nil)
		if err != nil {
			logrus.Fatalf("Setting up metrics: %v", err)
		}
		if metricsAddr != "" {
			go func() {
				http.Handle("/metrics", promhttp.Handler())
				if err := http.ListenAndServe(metricsAddr, nil); err != nil {
					logrus.Errorf("Metrics endpoint failed: %v", err)
				}
			}()
		}

		if err := runSimulation(cfg, collector); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// runSimulation drives one complete run: one model per domain, all domains
// advancing as goroutines over a shared in-process collective group.
func runSimulation(cfg sim.Config, collector *sim.Collector) error {
	if domains == 1 {
		return runDomain(sim.LocalPolicy{}, cfg, collector)
	}

	policies, err := sim.NewPolicyGroup(domains)
	if err != nil {
		return err
	}
	var eg errgroup.Group
	for _, p := range policies {
		eg.Go(func() error {
			return runDomain(p, cfg, collector)
		})
	}
	return eg.Wait()
}

// runDomain builds and runs one domain's model. Collective: every domain
// in the policy group runs this concurrently.
func runDomain(p sim.Policy, cfg sim.Config, collector *sim.Collector) error {
	if p.ID() == 0 {
		banner(p, cfg)
	}

	lifParams := cell.DefaultLIFParams()
	metrics := collector.Domain(p.ID())
	m, err := sim.BuildModel(p, cfg, func(lid int, c sim.Config) sim.CellGroup {
		return cell.NewLIF(lifParams, c.SynapsesPerCell)
	}, metrics)
	if err != nil {
		return err
	}

	// Monitor the membrane voltage on a few low-gid cells.
	var traces []*sim.Trace
	if cfg.SampleDt > 0 {
		for _, gid := range []sim.GID{0, 1, 2} {
			if !m.Comm.IsLocalGroup(gid) {
				continue
			}
			lid, _ := m.Comm.GroupLID(gid)
			lif, ok := m.Groups[lid].(*cell.LIF)
			if !ok {
				continue
			}
			tr := &sim.Trace{Name: "vsoma", Units: "mV", GID: gid}
			lif.AddProbe(tr, cfg.SampleDt)
			traces = append(traces, tr)
		}
	}

	if err := sim.SeedSpikes(m.Comm, spikeStride); err != nil {
		return err
	}

	if p.ID() == 0 {
		logrus.Infof(":: simulation to %g ms in %d steps of %g ms",
			cfg.TFinal, int(math.Ceil(cfg.TFinal/cfg.Dt)), cfg.Dt)
	}

	if err := m.Run(cfg.TFinal, cfg.Dt); err != nil {
		return err
	}

	if p.ID() == 0 {
		fmt.Println(metrics.Summary(m.Comm.NumSpikes()))
	}
	if traceDir != "" {
		if err := sim.DumpTraces(traceDir, traces); err != nil {
			return err
		}
	}
	return nil
}

func banner(p sim.Policy, cfg sim.Config) {
	fmt.Println("====================")
	fmt.Println("  starting network simulation")
	fmt.Printf("  - %d cells over %d domains\n", cfg.Cells, p.Size())
	fmt.Printf("  - communication policy: %s\n", p.Name())
	fmt.Println("====================")
}

func init() {
	runCmd.Flags().IntVar(&cells, "cells", 100, "Total number of cells across all domains")
	runCmd.Flags().IntVar(&synapsesPerCell, "synapses-per-cell", 1, "Synaptic fan-in per cell")
	runCmd.Flags().BoolVar(&allToAll, "all-to-all", false, "Connect cells in gid order instead of drawing random sources")
	runCmd.Flags().Float64Var(&minDelay, "min-delay", 20.0, "Base synaptic delay in ms")
	runCmd.Flags().Float64Var(&weightPerCell, "weight-per-cell", 0.3, "Total synaptic weight per cell")
	runCmd.Flags().Float64Var(&tfinal, "tfinal", 100.0, "Simulated end time in ms")
	runCmd.Flags().Float64Var(&dt, "dt", 0.025, "Integration step in ms")
	runCmd.Flags().Float64Var(&sampleDt, "sample-dt", 0.1, "Probe sampling interval in ms (0 disables)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Seed offset for connectivity generation")
	runCmd.Flags().IntVar(&spikeStride, "spike-stride", 20, "Every Nth cell fires at t=0")
	runCmd.Flags().IntVar(&domains, "domains", 1, "Number of in-process domains")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Parallel advance width per domain (0 = unbounded)")
	runCmd.Flags().StringVar(&traceDir, "trace-dir", "", "Directory for probe trace JSON dumps (empty disables)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus /metrics listen address (empty disables)")
	runCmd.Flags().StringVar(&logLevel, "loglevel", "info", "Log verbosity level")
	runCmd.Flags().StringVar(&scenarioFilePath, "config", "", "YAML scenario preset file")
	runCmd.Flags().StringVar(&scenarioName, "scenario", "default", "Scenario preset name")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
