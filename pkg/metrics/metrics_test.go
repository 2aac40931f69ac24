package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithMetricsEnabled(true),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordAPIRequest("/trends/search", "POST", "200", 12)

			Convey("Then the metric names and labels should follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, mf := range families {
					if mf.GetName() == "test_namespace_test_subsystem_api_requests_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "endpoint")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording requests and errors", func() {
			manager.RecordAPIRequest("/watchlists", "GET", "200", 4)
			manager.RecordAPIRequest("/watchlists", "GET", "200", 6)
			manager.RecordAPIError("/watchlists", "GET", "server_error", "high", 9)

			Convey("Then the counters should reflect the observations", func() {
				So(testutil.ToFloat64(manager.apiRequests.WithLabelValues("/watchlists", "GET", "200")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.errorRateByType.WithLabelValues("server_error", "high")), ShouldEqual, 1)
			})
		})

		Convey("When recording pattern classifications", func() {
			manager.RecordPattern("seasonal")

			Convey("Then the trend type counter should increase", func() {
				So(testutil.ToFloat64(manager.patternsClassified.WithLabelValues("seasonal")), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a disabled manager", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry), WithMetricsEnabled(false))

		Convey("When recording", func() {
			manager.RecordAPIRequest("/ml/models/status", "GET", "200", 1)
			manager.RecordPattern("stable")

			Convey("Then nothing should be observed", func() {
				So(testutil.ToFloat64(manager.apiRequests.WithLabelValues("/ml/models/status", "GET", "200")), ShouldEqual, 0)
				So(testutil.ToFloat64(manager.patternsClassified.WithLabelValues("stable")), ShouldEqual, 0)
			})
		})
	})

	Convey("Given the global manager", t, func() {
		Convey("Then the package level helpers should not panic", func() {
			So(func() {
				RecordAPIRequest("/stats/dashboard", "GET", "200", 3)
				RecordAPIError("/stats/dashboard", "GET", "not_found", "medium", 3)
				RecordPattern("linear")
				RecordWatchlistAnalysis("success")
				RecordExport("csv")
				RecordCacheHit()
				RecordCacheMiss()
				UpdateCacheEntries(3)
				RecordSessionEvent("login")
				RecordInflightRejection("search")
				UpdateInflightForms(1)
			}, ShouldNotPanic)
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given recorded global metrics", t, func() {
		RecordExport("json")
		dir := t.TempDir()

		Convey("When writing a textfile", func() {
			path := filepath.Join(dir, "trendscope.prom")
			err := WriteTextfile(path)

			Convey("Then the file should hold the exposition text", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(strings.Contains(string(data), "trendscope_client_exports_total"), ShouldBeTrue)
			})
		})

		Convey("When the target directory does not exist", func() {
			err := WriteTextfile(filepath.Join(dir, "missing", "out.prom"))

			Convey("Then ErrWriteFailed should be returned", func() {
				So(errors.Is(err, ErrWriteFailed), ShouldBeTrue)
			})
		})
	})
}
