package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/samvad-hq/aoi-inspection-client/internal/config"
	"github.com/samvad-hq/aoi-inspection-client/internal/logger"
	"github.com/samvad-hq/aoi-inspection-client/internal/storage"
	"github.com/samvad-hq/aoi-inspection-client/internal/watcher"
	"github.com/samvad-hq/aoi-inspection-client/pkg/aoi"
	"github.com/samvad-hq/aoi-inspection-client/pkg/httpclient"
	"github.com/samvad-hq/aoi-inspection-client/pkg/metrics"
	"github.com/samvad-hq/aoi-inspection-client/pkg/publishers"
	"github.com/samvad-hq/aoi-inspection-client/pkg/targets"
)

// Watcher is the AOI summary watcher runtime. It owns the poll loop and the
// resources the loop needs: publishers, the seen-wafer store and the
// optional ops server.
type Watcher struct {
	cfg          *config.Config
	targets      []targets.Target
	fanout       *publishers.Fanout
	service      *watcher.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
	ops          *opsServer
}

// NewAOIService builds the AOI adapter over a traced resty transport.
func NewAOIService(cfg *config.Config, log logger.Logger) *aoi.Service {
	client := httpclient.NewRestyClientWithOptions(httpclient.Options{
		BaseURL:   cfg.AOIBaseURL,
		Timeout:   cfg.AOITimeout,
		AuthToken: cfg.AOIAuthToken,
		UserAgent: cfg.AOIUserAgent,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Logger:    log,
	})
	return aoi.NewService(client)
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	targetReg, err := targets.LoadRegistry(cfg.TargetsFile)
	if err != nil {
		return nil, fmt.Errorf("load targets registry: %w", err)
	}
	targetList := targetReg.All()
	targetIDs := make([]string, 0, len(targetList))
	for _, t := range targetList {
		targetIDs = append(targetIDs, t.ID)
	}
	log.InfoObj("targets registry loaded", "targets_meta", map[string]any{
		"count": len(targetIDs),
		"ids":   targetIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	summaries := make([]map[string]string, 0, len(enabled))
	for _, pc := range enabled {
		summaries = append(summaries, map[string]string{"id": pc.ID, "type": pc.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	rec := metrics.New()
	var ops *opsServer
	if cfg.MetricsAddr != "" {
		ops = newOpsServer(cfg.MetricsAddr, cfg.AppName, rec, log)
	}

	processor := watcher.NewTargetProcessor(NewAOIService(cfg, log), fanout, store, rec, log, cfg.TimeLayout)

	return &Watcher{
		cfg:          cfg,
		targets:      targetList,
		fanout:       fanout,
		service:      watcher.NewService(processor, log),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
		ops:          ops,
	}, nil
}

// Run polls every target immediately and then on each tick until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	if w.ops != nil {
		w.ops.start()
	}

	if len(w.targets) == 0 {
		w.log.WarnObj("no targets configured; watcher idle", "targets_file", w.cfg.TargetsFile)
		<-ctx.Done()
		return nil
	}

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"targets_count":    len(w.targets),
		"publishers_count": w.fanout.Size(),
		"poll_interval":    w.pollInterval.String(),
	})

	if err := w.runOnce(ctx); err != nil {
		w.log.ErrorObj("initial poll failed", "error", err.Error())
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				w.log.ErrorObj("scheduled poll failed", "error", err.Error())
			}
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) error {
	start := time.Now()
	if err := w.service.Run(ctx, w.targets); err != nil {
		return err
	}
	w.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"targets_count": len(w.targets),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

func (w *Watcher) close() {
	if w.ops != nil {
		w.ops.stop()
	}
	if err := w.fanout.Close(); err != nil {
		w.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			w.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}
