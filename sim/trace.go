// Probe traces: time series sampled from cell groups during advancement
// and dumped as JSON after the run.
//
// Each trace is written to by exactly one cell group, so traces need no
// locking during the parallel phase; reading or dumping them is only legal
// between epochs (in practice: after Run returns).

package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TraceSample is one probe observation.
type TraceSample struct {
	Time  float64
	Value float64
}

// Trace is a named time series recorded from one cell group's probe.
type Trace struct {
	Name    string
	Units   string
	GID     GID
	Samples []TraceSample
}

// Append records one sample. Called by the owning cell group only.
func (tr *Trace) Append(t, v float64) {
	tr.Samples = append(tr.Samples, TraceSample{Time: t, Value: v})
}

// DumpTraces writes each trace to dir as trace_<gid>_<name>.json with the
// shape {"name", "units", "id", "data": {"time": [...], "<name>": [...]}}.
func DumpTraces(dir string, traces []*Trace) error {
	for _, tr := range traces {
		times := make([]float64, len(tr.Samples))
		values := make([]float64, len(tr.Samples))
		for i, s := range tr.Samples {
			times[i] = s.Time
			values[i] = s.Value
		}
		doc := map[string]any{
			"name":  tr.Name,
			"units": tr.Units,
			"id":    tr.GID,
			"data": map[string]any{
				"time":  times,
				tr.Name: values,
			},
		}
		data, err := json.MarshalIndent(doc, "", " ")
		if err != nil {
			return fmt.Errorf("encoding trace %s for gid %d: %w", tr.Name, tr.GID, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("trace_%d_%s.json", tr.GID, tr.Name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing trace %s: %w", path, err)
		}
	}
	return nil
}
