package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	service "github.com/okian/lifeline/internal/app"
	"github.com/okian/lifeline/internal/config"
	"github.com/okian/lifeline/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("LIFELINE_ADDR", ":8080")
			_ = os.Setenv("LIFELINE_QUEUE_SIZE", "1000")
			_ = os.Setenv("LIFELINE_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("LIFELINE_ADDR")
				_ = os.Unsetenv("LIFELINE_QUEUE_SIZE")
				_ = os.Unsetenv("LIFELINE_WORKER_COUNT")
			}()

			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)

			convey.Convey("Then the service picks up the settings", func() {
				svc := newService(cfg, logger.Get())
				stats := svc.GetStats()
				convey.So(stats["queueSize"], convey.ShouldEqual, 1000)
				convey.So(stats["workerCount"], convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the address is blanked out", func() {
			_ = os.Setenv("LIFELINE_ADDR", "")
			defer func() { _ = os.Unsetenv("LIFELINE_ADDR") }()

			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given a started service behind the application mux", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		cfg := config.New()
		cfg.WorkerCount = 2
		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		ts := httptest.NewServer(newMux(ctx, cfg, svc))
		defer ts.Close()

		convey.Convey("Then business and documentation routes are served", func() {
			for _, path := range []string{"/groups", "/stats", "/healthz", "/openapi.yaml", "/api-docs"} {
				resp, err := http.Get(ts.URL + path)
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then records posted over HTTP reach the store", func() {
			body := `{"subject_id":"s1","time":3.5,"event_observed":true,"group":"A"}`
			resp, err := http.Post(ts.URL+"/records", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)

			deadline := time.Now().Add(2 * time.Second)
			stored := func() int {
				n := 0
				for _, g := range svc.Groups(ctx) {
					n += g.Records
				}
				return n
			}
			for stored() < 1 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			convey.So(stored(), convey.ShouldEqual, 1)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		svc := service.New()

		convey.Convey("Then one-shot updates do not panic on an unstarted service", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loops return once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, svc)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("metrics updaters did not stop")
			}
		})
	})
}
