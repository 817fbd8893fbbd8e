package weather

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/ssma-incidents/internal/config"
	"github.com/mr1hm/ssma-incidents/internal/worker"
)

// Refresher keeps the summary cache warm by polling every configured site.
type Refresher struct {
	svc      *Service
	sites    []config.Site
	interval time.Duration
	workers  config.WorkerConfig
	pool     *worker.WorkerPool[config.Site]
	wg       sync.WaitGroup
}

func NewRefresher(svc *Service, sites []config.Site, interval time.Duration, workers config.WorkerConfig) *Refresher {
	return &Refresher{
		svc:      svc,
		sites:    sites,
		interval: interval,
		workers:  workers,
	}
}

func (r *Refresher) Start(ctx context.Context) {
	processor := func(ctx context.Context, site config.Site) error {
		_, err := r.svc.Refresh(ctx, site)
		return err
	}

	r.pool = worker.NewWorkerPool("weather", r.workers.Count, r.workers.BufferSize, processor)
	r.pool.Start(ctx)

	r.wg.Add(1)
	go r.run(ctx)
}

func (r *Refresher) run(ctx context.Context) {
	defer r.wg.Done()
	slog.Info("starting weather refresher", "sites", len(r.sites), "interval", r.interval)

	ticker := r.svc.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.poll()

	for {
		select {
		case <-ctx.Done():
			slog.Info("weather refresher shutting down")
			return
		case <-ticker.Chan():
			r.poll()
		}
	}
}

func (r *Refresher) poll() {
	for _, site := range r.sites {
		if !r.pool.TrySubmit(site) {
			slog.Warn("weather queue full, skipping site", "site", site.Name)
		}
	}
}

func (r *Refresher) Stop() {
	r.wg.Wait()
	r.pool.Stop()
	slog.Info("weather refresher stopped")
}
