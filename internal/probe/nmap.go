package probe

import (
	"context"
	"fmt"
	"log"
	"time"

	"labtopo/internal/domain"

	nmap "github.com/Ullaakut/nmap/v3"
)

// NmapProber runs an nmap host scan against a target address. Requires
// the nmap binary; Available() should be checked before registering it.
type NmapProber struct {
	Ports string
}

// NewNmapProber creates an nmap prober over the given port range.
func NewNmapProber(ports string) *NmapProber {
	if ports == "" {
		ports = "22,80,443,623,5900,8443"
	}
	return &NmapProber{Ports: ports}
}

// Name returns the probe identifier.
func (p *NmapProber) Name() string { return "nmap" }

// Applies reports that nmap scans run against every role.
func (p *NmapProber) Applies(Target) bool { return true }

// Available checks whether the nmap binary can be invoked.
func Available(ctx context.Context) bool {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	)
	if err != nil {
		return false
	}
	_, _, err = scanner.Run()
	return err == nil
}

// Probe scans the target address and reports its state and open ports.
func (p *NmapProber) Probe(ctx context.Context, t Target) (*domain.Observation, error) {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(t.Address),
		nmap.WithPorts(p.Ports),
		nmap.WithSkipHostDiscovery(),
	)
	if err != nil {
		return nil, fmt.Errorf("create scanner: %w", err)
	}

	start := time.Now()
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.Address, err)
	}
	if warnings != nil && len(*warnings) > 0 {
		log.Printf("nmap: warnings for %s: %v", t.Address, *warnings)
	}

	obs := &domain.Observation{Latency: time.Since(start)}

	for _, host := range result.Hosts {
		if host.Status.State != "up" {
			continue
		}
		obs.Success = true

		var open []int
		for _, port := range host.Ports {
			if port.State.State == "open" {
				open = append(open, int(port.ID))
			}
		}
		if len(open) > 0 {
			obs.SetDetail("open_ports", open)
		}
		if len(host.Hostnames) > 0 {
			obs.SetDetail("hostname", host.Hostnames[0].Name)
		}
	}

	return obs, nil
}
