package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"labtopo/internal/domain"

	"github.com/cenkalti/backoff/v4"
)

// TCPProber checks targets with plain TCP connects against a small set
// of well-known ports. It applies to every role.
type TCPProber struct {
	Ports   []int
	Timeout time.Duration
	// Retries bounds re-attempts per port for transient dial errors.
	Retries uint64
}

// NewTCPProber creates a TCP connect prober.
func NewTCPProber(ports []int, timeout time.Duration) *TCPProber {
	if len(ports) == 0 {
		ports = []int{22, 80, 443, 623}
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &TCPProber{Ports: ports, Timeout: timeout, Retries: 1}
}

// Name returns the probe identifier.
func (p *TCPProber) Name() string { return "tcp" }

// Applies reports that TCP checks run against every role.
func (p *TCPProber) Applies(Target) bool { return true }

// Probe dials each configured port and records which accepted.
func (p *TCPProber) Probe(ctx context.Context, t Target) (*domain.Observation, error) {
	obs := &domain.Observation{}

	var (
		openPorts []int
		best      time.Duration
	)

	dialer := &net.Dialer{Timeout: p.Timeout}

	for _, port := range p.Ports {
		addr := net.JoinHostPort(t.Address, fmt.Sprintf("%d", port))

		attempt := func() error {
			start := time.Now()
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return err
			}
			conn.Close()

			elapsed := time.Since(start)
			if best == 0 || elapsed < best {
				best = elapsed
			}
			openPorts = append(openPorts, port)
			return nil
		}

		// One bounded retry smooths over transient dial failures without
		// stalling the whole run on a dead address.
		policy := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(100*time.Millisecond),
				backoff.WithMaxElapsedTime(p.Timeout),
			), p.Retries),
			ctx,
		)
		_ = backoff.Retry(attempt, policy)

		if ctx.Err() != nil {
			break
		}
	}

	obs.Success = len(openPorts) > 0
	obs.Latency = best
	if len(openPorts) > 0 {
		obs.SetDetail("open_ports", openPorts)
	}

	return obs, nil
}
