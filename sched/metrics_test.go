package sched_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/dshills/interleave-go/sched"
)

// counterSum gathers the registry and sums a counter family's samples,
// keeping only samples whose labels include every pair in match.
func counterSum(t *testing.T, reg *prometheus.Registry, name string, match map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var sum float64
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			matched := true
			for k, v := range match {
				if labels[k] != v {
					matched = false
					break
				}
			}
			if matched {
				sum += m.GetCounter().GetValue()
			}
		}
	}
	return sum
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == name {
			for _, m := range fam.GetMetric() {
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("gauge %s not found", name)
	return 0
}

func hasFamily(families []*dto.MetricFamily, name string) bool {
	for _, fam := range families {
		if fam.GetName() == name && len(fam.GetMetric()) > 0 {
			return true
		}
	}
	return false
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := sched.NewPrometheusMetrics(reg)
	s := sched.New(nil, nil, sched.Options{Metrics: metrics})

	var order []string
	tasks := tracingTasks(&order, []string{"A", "B", "C"}, 3)
	mustRun(t, s, "metrics-run", tasks, [][]int{{0}})

	// w0: skip at step 0, handoffs at steps 1 and 2 (terminal). w1: three
	// handoffs. w2: two handoffs; its terminal yield is the run's no-op end.
	cases := []struct {
		worker string
		want   float64
	}{
		{"w0", 2},
		{"w1", 3},
		{"w2", 2},
	}
	for _, tc := range cases {
		got := counterSum(t, reg, "interleave_handoffs_total", map[string]string{
			"run_id": "metrics-run", "worker_id": tc.worker,
		})
		if got != tc.want {
			t.Errorf("handoffs for %s = %v, want %v", tc.worker, got, tc.want)
		}
	}

	skips := counterSum(t, reg, "interleave_skips_total", map[string]string{
		"run_id": "metrics-run", "worker_id": "w0",
	})
	if skips != 1 {
		t.Errorf("skips for w0 = %v, want 1", skips)
	}

	runs := counterSum(t, reg, "interleave_runs_total", map[string]string{"status": "success"})
	if runs != 1 {
		t.Errorf("successful runs = %v, want 1", runs)
	}

	if active := gaugeValue(t, reg, "interleave_active_workers"); active != 0 {
		t.Errorf("active workers after run = %v, want 0", active)
	}
}

func TestMetricsFailedRunStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := sched.NewPrometheusMetrics(reg)
	s := sched.New(nil, nil, sched.Options{Metrics: metrics})

	tasks := []sched.Task{
		sched.TaskFunc(func(t *sched.Turn) { panic("nope") }),
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Run(context.Background(), "metrics-fail", tasks, nil)
	}()
	<-done

	if got := counterSum(t, reg, "interleave_runs_total", map[string]string{"status": "error"}); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
}

func TestMetricsDisable(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := sched.NewPrometheusMetrics(reg)
	metrics.Disable()

	s := sched.New(nil, nil, sched.Options{Metrics: metrics})
	var order []string
	mustRun(t, s, "metrics-off", tracingTasks(&order, []string{"A", "B"}, 2), nil)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if hasFamily(families, "interleave_handoffs_total") {
		t.Error("handoffs recorded while disabled")
	}
	if hasFamily(families, "interleave_runs_total") {
		t.Error("runs recorded while disabled")
	}

	metrics.Enable()
	mustRun(t, s, "metrics-on", tracingTasks(&order, []string{"A", "B"}, 2), nil)
	if got := counterSum(t, reg, "interleave_runs_total", map[string]string{"status": "success"}); got != 1 {
		t.Errorf("successful runs after re-enable = %v, want 1", got)
	}
}
