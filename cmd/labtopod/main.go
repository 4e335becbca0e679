package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labtopo/internal/config"
	"labtopo/internal/handler"
	"labtopo/internal/probe"
	"labtopo/internal/registry"
	"labtopo/internal/repository/sqlite"
	"labtopo/internal/watcher"
)

// probeService adapts the runner to the handler trigger interface and
// owns the periodic schedule.
type probeService struct {
	runner *probe.Runner
	reg    *registry.Handle
}

// TriggerProbe runs one probe pass over the current registry.
func (s *probeService) TriggerProbe(ctx context.Context) error {
	s.runner.Run(ctx, probe.TargetsFrom(s.reg.Current()))
	return nil
}

func (s *probeService) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runner.Run(ctx, probe.TargetsFrom(s.reg.Current()))
		}
	}
}

func main() {
	configPath := flag.String("config", "", "config file path (overrides search)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	topologyPath := flag.String("topology", "", "topology file path (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting labtopod...")

	// Load configuration
	var (
		cfg     *config.Config
		cfgFrom string
		err     error
	)
	if *configPath != "" {
		cfg, cfgFrom, err = config.LoadFromPath(*configPath)
	} else {
		cfg, cfgFrom, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfgFrom != "" {
		log.Printf("Config loaded from %s", cfgFrom)
	} else {
		log.Printf("No config file found, using defaults")
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *topologyPath != "" {
		cfg.Topology.Path = *topologyPath
	}

	// Open the observation and snapshot store
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Load the topology. The registry is immutable; reloads swap the
	// handle atomically and a failed reload keeps this one in service.
	// A missing topology file falls back to the persisted snapshot.
	reg, err := registry.LoadFile(cfg.Topology.Path, cfg.Topology.Format)
	switch {
	case err == nil:
		log.Printf("Topology loaded: %d hosts from %s", reg.Len(), cfg.Topology.Path)
	case errors.Is(err, os.ErrNotExist):
		hosts, lerr := repo.ListHosts(rootCtx)
		if lerr != nil {
			log.Fatalf("Failed to read persisted snapshot: %v", lerr)
		}
		if len(hosts) == 0 {
			log.Fatalf("Failed to load topology: %v (no persisted snapshot either)", err)
		}
		if reg, err = registry.New(hosts); err != nil {
			log.Fatalf("Persisted snapshot is invalid: %v", err)
		}
		log.Printf("Topology file %s missing, serving persisted snapshot: %d hosts",
			cfg.Topology.Path, reg.Len())
	default:
		log.Fatalf("Failed to load topology: %v", err)
	}
	handle := registry.NewHandle(reg)

	if err := repo.ReplaceTopology(rootCtx, reg.Hosts()); err != nil {
		log.Fatalf("Failed to persist topology snapshot: %v", err)
	}

	// Assemble probes
	var probeSvc *probeService
	if cfg.Probes.Enabled {
		probers := []probe.Prober{
			probe.NewTCPProber(cfg.Probes.TCPPorts, cfg.Probes.Timeout.Duration()),
		}
		if cfg.Probes.SNMP.Enabled {
			probers = append(probers, probe.NewSNMPProber(
				cfg.Probes.SNMP.Community, cfg.Probes.SNMP.Port, cfg.Probes.Timeout.Duration()))
		}
		if cfg.Probes.SSH.Enabled {
			probers = append(probers, probe.NewSSHProber(
				cfg.Probes.SSH.Port, cfg.Probes.Timeout.Duration()))
		}
		if cfg.Probes.Nmap {
			if probe.Available(rootCtx) {
				probers = append(probers, probe.NewNmapProber(""))
			} else {
				log.Printf("Warning: nmap probe enabled but binary not found, skipping")
			}
		}

		runner := probe.NewRunner(repo, cfg.Probes.MaxConcurrent,
			cfg.Probes.Timeout.Duration(), probers...)
		probeSvc = &probeService{runner: runner, reg: handle}
		go probeSvc.loop(rootCtx, cfg.Probes.Interval.Duration())
		log.Printf("Probes enabled: %d probers, interval %s", len(probers), cfg.Probes.Interval)
	}

	// Watch the topology file for changes
	if cfg.Topology.Watch {
		rl := watcher.New(cfg.Topology.Path, func() error {
			fresh, err := registry.LoadFile(cfg.Topology.Path, cfg.Topology.Format)
			if err != nil {
				return err
			}
			handle.Swap(fresh)
			if err := repo.ReplaceTopology(rootCtx, fresh.Hosts()); err != nil {
				log.Printf("Failed to persist reloaded snapshot: %v", err)
			}
			return nil
		})
		go func() {
			if err := rl.Watch(rootCtx); err != nil && rootCtx.Err() == nil {
				log.Printf("Topology watcher stopped: %v", err)
			}
		}()
	}

	// HTTP routes
	topoHandler := handler.NewTopologyHandler(handle, repo)
	if probeSvc != nil {
		topoHandler.SetProbeTrigger(probeSvc)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/topology", topoHandler.GetTopology)
	mux.HandleFunc("GET /api/hosts", topoHandler.ListHosts)
	mux.HandleFunc("GET /api/hosts/{id}", topoHandler.GetHost)
	mux.HandleFunc("GET /api/hosts/{id}/observations", topoHandler.ListHostObservations)
	mux.HandleFunc("GET /api/roles/{role}", topoHandler.ListByRole)
	mux.HandleFunc("GET /api/observations", topoHandler.ListObservations)
	mux.HandleFunc("POST /api/probe", topoHandler.TriggerProbe)
	mux.HandleFunc("GET /api/export/{format}", topoHandler.Export)

	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	rootCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
