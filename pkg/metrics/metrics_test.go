package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with defaults", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "talentflow")
				So(manager.subsystem, ShouldEqual, "api")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("hiring"),
				WithSubsystem("sim"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithMetricsEnabled(false),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "hiring")
				So(manager.subsystem, ShouldEqual, "sim")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
				So(manager.enabled, ShouldBeFalse)
				So(manager.constLabels["env"], ShouldEqual, "test")
			})

			Convey("And metric names should carry the namespace", func() {
				manager.simulatedFailures.WithLabelValues("jobs.reorder").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "hiring_sim_simulated_failures_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording simulated failures", func() {
			before := gathered("talentflow_api_simulated_failures_total", "jobs.reorder")
			RecordSimulatedFailure("jobs.reorder")
			RecordSimulatedFailure("jobs.reorder")

			Convey("Then the counter should advance per op", func() {
				after := gathered("talentflow_api_simulated_failures_total", "jobs.reorder")
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When setting record gauges", func() {
			UpdateRecordsTotal("jobs", 25)

			Convey("Then the gauge should hold the value", func() {
				So(gathered("talentflow_api_records", "jobs"), ShouldEqual, 25)
			})
		})

		Convey("When recording every kind of metric", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					RecordHTTPRequest("jobs", "GET", "200")
					RecordHTTPRequestDuration("jobs", "GET", "200", 412)
					RecordErrorByComponent("store", "not_found")
					RecordErrorByType("server_error", "high")
					RecordErrorByEndpoint("jobs", "GET", "server_error")
					RecordSimulatedLatency("jobs.list", 640)
					RecordOperation("jobs.list", "ok")
					RecordStoreLatency("jobs", "all", 0.2)
					UpdateCallQueueSize(3)
					UpdateCallQueueCapacity(1024)
					RecordCallQueueWait(1)
					UpdateWorkerCount(8)
					IncWorkerBusy()
					DecWorkerBusy()
					RecordStageTransition("candidates", "screen")
					RecordIdempotentDuplicate()
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
			})
		})

		Convey("When gathering the custom registry", func() {
			RecordStageTransition("applications", "offer")
			families, err := GetRegistry().Gather()

			Convey("Then talentflow metrics should be exposed", func() {
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "talentflow_api_stage_transitions_total")
			})
		})
	})
}

// gathered reads a counter or gauge sample from the custom registry whose
// first label carries labelValue.
func gathered(name, labelValue string) float64 {
	families, err := GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := m.GetLabel()
			if len(labels) == 0 || labels[0].GetValue() != labelValue {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}
