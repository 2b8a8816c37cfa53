package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/samvad-hq/aoi-inspection-client/internal/logger"
	"github.com/samvad-hq/aoi-inspection-client/pkg/metrics"
)

// newOpsRouter serves /metrics and /healthz.
func newOpsRouter(serviceName string, rec *metrics.Recorder) *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware(serviceName))
	r.Handle("/metrics", rec.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

// opsServer runs the metrics endpoint until ctx is done.
type opsServer struct {
	srv *http.Server
	log logger.Logger
}

func newOpsServer(addr, serviceName string, rec *metrics.Recorder, log logger.Logger) *opsServer {
	return &opsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           newOpsRouter(serviceName, rec),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func (o *opsServer) start() {
	go func() {
		o.log.InfoObj("ops server listening", "ops_addr", o.srv.Addr)
		if err := o.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.log.ErrorObj("ops server failed", "error", err.Error())
		}
	}()
}

func (o *opsServer) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.srv.Shutdown(ctx); err != nil {
		o.log.WarnObj("ops server shutdown failed", "error", err.Error())
	}
}
