package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/kanduri/arbor/sim"
)

// Define struct for YAML
type ScenarioConfig struct {
	Scenarios map[string]Scenario `yaml:"scenarios"`
}

type Scenario struct {
	Cells           int     `yaml:"cells"`
	SynapsesPerCell int     `yaml:"synapses_per_cell"`
	AllToAll        bool    `yaml:"all_to_all"`
	MinDelay        float64 `yaml:"min_delay"`
	WeightPerCell   float64 `yaml:"weight_per_cell"`
	TFinal          float64 `yaml:"tfinal"`
	Dt              float64 `yaml:"dt"`
	SampleDt        float64 `yaml:"sample_dt"`
}

// GetScenarioConfig loads the named preset from a YAML scenario file and
// overlays it on base. Returns nil when the preset does not exist.
func GetScenarioConfig(scenarioFilePath string, scenarioName string, base sim.Config) *sim.Config {
	// Read YAML file
	data, err := os.ReadFile(scenarioFilePath)
	if err != nil {
		logrus.Fatalf("Reading scenario file %s: %v", scenarioFilePath, err)
	}

	// Parse YAML
	var cfg ScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Fatalf("Parsing scenario file %s: %v", scenarioFilePath, err)
	}

	scenario, exists := cfg.Scenarios[scenarioName]
	if !exists {
		return nil
	}
	logrus.Infof("Using preset scenario %v", scenarioName)

	out := base
	if scenario.Cells != 0 {
		out.Cells = scenario.Cells
	}
	if scenario.SynapsesPerCell != 0 {
		out.SynapsesPerCell = scenario.SynapsesPerCell
	}
	out.AllToAll = scenario.AllToAll
	if scenario.MinDelay != 0 {
		out.MinDelay = scenario.MinDelay
	}
	if scenario.WeightPerCell != 0 {
		out.WeightPerCell = scenario.WeightPerCell
	}
	if scenario.TFinal != 0 {
		out.TFinal = scenario.TFinal
	}
	if scenario.Dt != 0 {
		out.Dt = scenario.Dt
	}
	if scenario.SampleDt != 0 {
		out.SampleDt = scenario.SampleDt
	}
	return &out
}
