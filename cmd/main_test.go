package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/config"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

func quietConfig() *config.Config {
	cfg := config.New()
	cfg.LatencyMinMS, cfg.LatencyMaxMS = 0, 0
	cfg.FailureRate, cfg.ReorderFailureRate = 0, 0
	cfg.WorkerCount = 4
	cfg.SeedCandidates = 20
	return cfg
}

func TestConfigLoading(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		t.Setenv("TALENTFLOW_ADDR", ":8080")
		t.Setenv("TALENTFLOW_QUEUE_SIZE", "1000")
		t.Setenv("TALENTFLOW_WORKER_COUNT", "4")

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
		convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
		convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
	})

	convey.Convey("Given an unknown store driver", t, func() {
		t.Setenv("TALENTFLOW_STORE_DRIVER", "postgres")

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(cfg, convey.ShouldBeNil)
	})
}

func TestHandler(t *testing.T) {
	convey.Convey("Given a started service built from config", t, func() {
		ctx := context.Background()
		svc := newService(quietConfig(), logger.Nop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, svc)
		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Then the seeded jobs are listed", func() {
			w := get("/jobs?limit=5")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			convey.So(gjson.Get(w.Body.String(), "pagination.total").Int(), convey.ShouldEqual, int64(25))
			convey.So(gjson.Get(w.Body.String(), "data.#").Int(), convey.ShouldEqual, int64(5))
		})

		convey.Convey("Then the docs are mounted", func() {
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then service metrics can be refreshed", func() {
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("The system updater returns once it is done", func() {
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}
