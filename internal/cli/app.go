package cli

import (
	"github.com/sdkdesk/sdkdesk/internal/catalog"
	"github.com/sdkdesk/sdkdesk/internal/config"
	"github.com/sdkdesk/sdkdesk/internal/events"
	"github.com/sdkdesk/sdkdesk/internal/installer"
	"github.com/sdkdesk/sdkdesk/internal/local"
	"github.com/sdkdesk/sdkdesk/internal/manager"
)

// app wires the services a command needs from the loaded session.
type app struct {
	client    *catalog.Client
	catalog   *catalog.Service
	scanner   *local.Scanner
	bus       *events.Bus
	installer *installer.Installer
	manager   *manager.Manager
}

func newApp() *app {
	cfg, log := session.cfg, session.log

	client := catalog.NewClient(
		catalog.WithBaseURL(cfg.APIBaseURL),
		catalog.WithHTTPClient(catalog.HTTPClient(cfg)),
	)
	scanner := local.NewScanner(cfg.SDKManDir)
	cache := catalog.NewCache(config.CacheDir(), cfg.Cache.TTL)
	svc := catalog.NewService(client, cache, scanner, catalog.WithLogger(log.Named("catalog")))

	bus := events.NewBus()
	inst := installer.New(client, cfg.SDKManDir, bus,
		installer.WithRateLimit(cfg.Download.RateLimit),
		installer.WithLogger(log.Named("installer")),
	)
	mgr := manager.New(inst, svc, bus, manager.WithLogger(log))

	return &app{
		client:    client,
		catalog:   svc,
		scanner:   scanner,
		bus:       bus,
		installer: inst,
		manager:   mgr,
	}
}
