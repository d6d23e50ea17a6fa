package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leafdns/leafdns/internal/dns/common/clock"
	"github.com/leafdns/leafdns/internal/dns/common/log"
	"github.com/leafdns/leafdns/internal/dns/gateways/transport"
	"github.com/leafdns/leafdns/internal/dns/gateways/wire"
	"github.com/leafdns/leafdns/internal/dns/infra/config"
	"github.com/leafdns/leafdns/internal/dns/repos/answercache"
	"github.com/leafdns/leafdns/internal/dns/repos/zone"
	"github.com/leafdns/leafdns/internal/dns/repos/zonestore"
	"github.com/leafdns/leafdns/internal/dns/services/resolver"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "leafdnsd"

	// defaultRecordTTL applies to zone records that specify no TTL.
	defaultRecordTTL = 5 * time.Second

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the DNS server
type Application struct {
	config     *config.AppConfig
	transports []transport.ServerTransport
	resolver   *resolver.Resolver
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"port":       cfg.Port,
		"zone_dir":   cfg.ZoneDir,
		"enable_tcp": cfg.EnableTCP,
		"cache_size": cfg.CacheSize,
	}, "Starting leafdns server")

	// Build application with all dependencies
	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	// Start the DNS server
	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "leafdns server stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	codec := wire.NewCodec(logger)

	store, err := buildZoneStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build zone store: %w", err)
	}

	cache, err := buildAnswerCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build answer cache: %w", err)
	}

	resolverService := resolver.New(resolver.Options{
		ZoneStore:     store,
		Cache:         cache,
		Logger:        logger,
		MaxChainDepth: cfg.MaxCNAMEDepth,
	})

	// Build transport layer. UDP is always on; TCP is optional.
	addr := fmt.Sprintf(":%d", cfg.Port)
	opts := transport.Options{
		UDPPayloadSize: cfg.UDPPayloadSize,
		TCPIdleTimeout: time.Duration(cfg.TCPIdleSeconds) * time.Second,
		Clock:          clk,
	}

	types := []transport.Type{transport.TypeUDP}
	if cfg.EnableTCP {
		types = append(types, transport.TypeTCP)
	}

	var transports []transport.ServerTransport
	for _, t := range types {
		srv, err := transport.New(t, addr, codec, logger, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s transport: %w", t, err)
		}
		transports = append(transports, srv)
	}

	return &Application{
		config:     cfg,
		transports: transports,
		resolver:   resolverService,
	}, nil
}

// buildZoneStore loads the zone files and freezes them into the store.
func buildZoneStore(cfg *config.AppConfig) (*zonestore.Store, error) {
	zones, err := zone.LoadDirectory(cfg.ZoneDir, defaultRecordTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to load zone directory: %w", err)
	}

	store, err := zonestore.Build(zones)
	if err != nil {
		return nil, err
	}

	log.Info(map[string]any{
		"zone_dir": cfg.ZoneDir,
		"zones":    len(store.Zones()),
		"records":  store.Count(),
	}, "Zone store initialized")
	return store, nil
}

// buildAnswerCache creates the resolved-answer LRU, or nothing when disabled.
func buildAnswerCache(cfg *config.AppConfig) (resolver.Cache, error) {
	if cfg.CacheSize == 0 {
		log.Info(map[string]any{"disabled": true}, "Answer caching disabled")
		return nil, nil
	}

	cache, err := answercache.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer cache: %w", err)
	}

	log.Info(map[string]any{
		"type": "LRU",
		"size": cfg.CacheSize,
	}, "Answer cache configured")
	return cache, nil
}

// Run starts the DNS server and blocks until context is cancelled
func (app *Application) Run(ctx context.Context) error {
	var started []transport.ServerTransport
	for _, srv := range app.transports {
		if err := srv.Start(ctx, app.resolver); err != nil {
			for _, s := range started {
				_ = s.Stop()
			}
			return fmt.Errorf("failed to start transport on %s: %w", srv.Address(), err)
		}
		started = append(started, srv)
	}

	log.Info(map[string]any{
		"address":    fmt.Sprintf(":%d", app.config.Port),
		"transports": len(started),
	}, "DNS server ready")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for _, srv := range started {
			if err := srv.Stop(); err != nil {
				log.Warn(map[string]any{
					"address": srv.Address(),
					"error":   err,
				}, "Error during transport shutdown")
			}
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
