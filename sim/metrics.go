// Run metrics: Prometheus instrumentation plus an end-of-run summary.

package sim

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/stat"
)

// Collector bundles the Prometheus metrics of a simulation process. One
// Collector serves all in-process domains; per-domain series are separated
// by the "domain" label.
type Collector struct {
	spikes        *prometheus.CounterVec
	events        *prometheus.CounterVec
	epochs        *prometheus.CounterVec
	epochDuration *prometheus.HistogramVec
	localGroups   *prometheus.GaugeVec
}

// NewCollector registers the simulation metrics against reg, defaulting to
// the global Prometheus registry when reg is nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	spikes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_spikes_exchanged_total",
		Help: "Total spikes observed in collective exchanges, per domain.",
	}, []string{"domain"}))
	if err != nil {
		return nil, err
	}

	events, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_events_delivered_total",
		Help: "Total post-synaptic events enqueued to local cell groups, per domain.",
	}, []string{"domain"}))
	if err != nil {
		return nil, err
	}

	epochs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_epochs_total",
		Help: "Completed bulk-synchronous epochs, per domain.",
	}, []string{"domain"}))
	if err != nil {
		return nil, err
	}

	epochDuration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sim_epoch_duration_seconds",
		Help:    "Wall-clock duration of one epoch (advance plus exchange).",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
	}, []string{"domain"}))
	if err != nil {
		return nil, err
	}

	localGroups, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sim_local_cell_groups",
		Help: "Number of cell groups owned by the domain.",
	}, []string{"domain"}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		spikes:        spikes,
		events:        events,
		epochs:        epochs,
		epochDuration: epochDuration,
		localGroups:   localGroups,
	}, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("registering simulation metrics: %w", err)
		}
		return are.ExistingCollector.(*prometheus.CounterVec), nil
	}
	return c, nil
}

func registerHistogramVec(reg prometheus.Registerer, h *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("registering simulation metrics: %w", err)
		}
		return are.ExistingCollector.(*prometheus.HistogramVec), nil
	}
	return h, nil
}

func registerGaugeVec(reg prometheus.Registerer, g *prometheus.GaugeVec) (*prometheus.GaugeVec, error) {
	if err := reg.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("registering simulation metrics: %w", err)
		}
		return are.ExistingCollector.(*prometheus.GaugeVec), nil
	}
	return g, nil
}

// Domain returns the per-domain metrics handle bound to the collector's
// labeled series. A nil Collector yields a nil handle, which every method
// tolerates, so metrics stay optional in tests.
func (c *Collector) Domain(domain int) *Metrics {
	if c == nil {
		return nil
	}
	return &Metrics{c: c, domain: strconv.Itoa(domain)}
}

// Metrics records one domain's per-epoch observations. Mutated only at
// epoch boundaries on the driver goroutine.
type Metrics struct {
	c      *Collector
	domain string

	epochSpikes []float64
}

// ObserveEpoch records one completed epoch.
func (m *Metrics) ObserveEpoch(stats ExchangeStats, d time.Duration) {
	if m == nil {
		return
	}
	m.c.spikes.WithLabelValues(m.domain).Add(float64(stats.Gathered))
	m.c.events.WithLabelValues(m.domain).Add(float64(stats.Delivered))
	m.c.epochs.WithLabelValues(m.domain).Inc()
	m.c.epochDuration.WithLabelValues(m.domain).Observe(d.Seconds())
	m.epochSpikes = append(m.epochSpikes, float64(stats.Gathered))
}

// SetLocalGroups records the domain's group count after decomposition.
func (m *Metrics) SetLocalGroups(n int) {
	if m == nil {
		return
	}
	m.c.localGroups.WithLabelValues(m.domain).Set(float64(n))
}

// Summary renders the end-of-run report: total spikes and the per-epoch
// spike distribution.
func (m *Metrics) Summary(numSpikes uint64) string {
	if m == nil || len(m.epochSpikes) == 0 {
		return fmt.Sprintf("there were %d spikes", numSpikes)
	}
	mean := stat.Mean(m.epochSpikes, nil)
	sd := stat.StdDev(m.epochSpikes, nil)
	return fmt.Sprintf("there were %d spikes over %d epochs (%.1f ± %.1f per epoch)",
		numSpikes, len(m.epochSpikes), mean, sd)
}
