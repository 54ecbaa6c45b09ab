// ABOUTME: Application wiring shared by every CLI command
// ABOUTME: Builds the three contexts in-process around one router

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"pageintel/agent"
	"pageintel/backend"
	"pageintel/bus"
	"pageintel/core/ingest"
	"pageintel/core/interfaces"
	"pageintel/core/selection"
	htmldom "pageintel/infrastructure/dom/html"
	"pageintel/infrastructure/cache/memory"
	"pageintel/infrastructure/cache/redis"
	stdhttp "pageintel/infrastructure/http/standard"
	logruslogger "pageintel/infrastructure/logger/logrus"
	"pageintel/infrastructure/screen/static"
	"pageintel/mediator"
	"pageintel/panel"
	"pageintel/pkg/config"
)

// app bundles the wired contexts for one CLI invocation.
type app struct {
	cfg      *config.Config
	logger   interfaces.Logger
	router   *bus.Router
	backend  *backend.Client
	mediator *mediator.Mediator
	panel    *panel.Panel
}

// newApp loads configuration and wires the mediator and panel. The
// page agent is attached separately because not every command needs a
// page.
func newApp(surface selection.Surface) (*app, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if flagCapture != "" {
		cfg.Capture.SourcePath = flagCapture
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logruslogger.NewLogrusLogger()

	var cache interfaces.Cache
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := redis.NewRedisCache(cfg.Cache.Redis)
		if err != nil {
			logger.Error("Failed to create Redis cache, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
			cache = memory.NewMemoryCache()
		} else {
			cache = redisCache
			logger.Info("Using Redis cache", map[string]interface{}{
				"address": cfg.Cache.Redis.Address,
			})
		}
	default:
		cache = memory.NewMemoryCache()
	}

	httpClient := stdhttp.NewStandardHTTPClient(30 * time.Second)

	deps := interfaces.Dependencies{
		Cache:      cache,
		HTTPClient: httpClient,
		Logger:     logger,
	}

	client := backend.NewClient(cfg.Backend.URL, deps)
	preflight := ingest.NewPreflight(cache, logger)

	router := bus.NewRouter(logger)
	capturer := static.NewStaticCapturer(cfg.Capture.SourcePath)

	med := mediator.NewMediator(router, client, capturer, preflight, logger)
	med.Start()

	pnl := panel.NewPanel(router, client, logger, cfg.Backend.Streaming)
	pnl.Attach(router)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		router:   router,
		backend:  client,
		mediator: med,
		panel:    pnl,
	}

	if flagPage != "" {
		if err := a.attachPage(surface, httpClient); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// attachPage loads the page markup and mounts the page agent.
func (a *app) attachPage(surface selection.Surface, httpClient interfaces.HTTPClient) error {
	markup, pageURL, err := loadPage(httpClient)
	if err != nil {
		return err
	}

	doc, err := htmldom.Parse(pageURL, markup)
	if err != nil {
		return fmt.Errorf("parsing page: %w", err)
	}

	if surface == nil {
		surface = idleSurface{}
	}
	agent.NewAgent(doc, surface, a.logger).Attach(a.router)
	return nil
}

// loadPage reads the --page target, which is either a local HTML file
// or an http(s) URL.
func loadPage(httpClient interfaces.HTTPClient) (markup, pageURL string, err error) {
	if strings.HasPrefix(flagPage, "http://") || strings.HasPrefix(flagPage, "https://") {
		resp, err := httpClient.Get(context.Background(), flagPage)
		if err != nil {
			return "", "", fmt.Errorf("fetching page: %w", err)
		}
		defer resp.Body().Close()
		if resp.StatusCode() >= 400 {
			return "", "", fmt.Errorf("fetching page: status %d", resp.StatusCode())
		}
		data, err := io.ReadAll(resp.Body())
		if err != nil {
			return "", "", err
		}
		return string(data), flagPage, nil
	}

	data, err := os.ReadFile(flagPage)
	if err != nil {
		return "", "", fmt.Errorf("reading page file: %w", err)
	}
	pageURL = flagPageURL
	if pageURL == "" {
		pageURL = "file://" + flagPage
	}
	return string(data), pageURL, nil
}

func (a *app) close() {
	a.mediator.Stop()
}

// idleSurface is the surface used when no selection is expected. Its
// event channel never delivers, so a stray selection request just
// waits for ctx.
type idleSurface struct{}

func (idleSurface) Show()                                 {}
func (idleSurface) UpdateBox(selection.Box)               {}
func (idleSurface) HideBox()                              {}
func (idleSurface) ShowToolbar(selection.Box)             {}
func (idleSurface) HideToolbar()                          {}
func (idleSurface) Teardown()                             {}
func (idleSurface) Metrics() (float64, float64, float64)  { return 1280, 800, 1 }
func (idleSurface) Events() <-chan selection.Event        { return make(chan selection.Event) }
