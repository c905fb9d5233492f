// Package app assembles the service from its configuration.
package app

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"tpcollect/pkg/api"
	"tpcollect/pkg/cache"
	"tpcollect/pkg/config"
	"tpcollect/pkg/form"
	"tpcollect/pkg/history"
	"tpcollect/pkg/metrics"
	"tpcollect/pkg/sheets"
	"tpcollect/pkg/store"
)

type App struct {
	Config     *config.Config
	Store      store.Store
	Cache      *cache.Cache
	Controller *form.Controller
	Viewer     *history.Viewer
	Registry   *prometheus.Registry

	closer io.Closer
}

// OpenStore returns the row store selected by the backend setting.
func OpenStore(cfg *config.Config) (store.Store, io.Closer, error) {
	switch cfg.Store.Backend {
	case config.BackendSheets:
		return sheets.NewStore(cfg), nil, nil
	case config.BackendSQLite:
		s, err := store.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.BackendMemory:
		return store.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Store.Backend)
	}
}

func New(cfg *config.Config) (*App, error) {
	raw, closer, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithStore(cfg, raw, closer), nil
}

// NewWithStore wires every component around an already opened store.
func NewWithStore(cfg *config.Config, raw store.Store, closer io.Closer) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	s := metrics.InstrumentStore(raw, m)
	c := cache.New(s, cfg.CacheTTL(), cache.WithMetrics(m))
	log.WithFields(log.Fields{
		"backend":   cfg.Store.Backend,
		"cache_ttl": cfg.CacheTTL().String(),
		"time_zone": loc.String(),
	}).Info("store ready")

	return &App{
		Config:     cfg,
		Store:      s,
		Cache:      c,
		Controller: form.NewController(s, c, form.WithClock(now), form.WithMetrics(m)),
		Viewer:     history.NewViewer(c, now),
		Registry:   reg,
		closer:     closer,
	}
}

func (a *App) Router() http.Handler {
	h := api.NewHandler(a.Config.Store.Title, a.Controller, a.Viewer)
	return api.GetRouter(h, a.Registry)
}

func (a *App) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
