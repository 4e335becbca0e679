// Package probe implements read-only reachability checks against the
// addresses in the topology registry.
//
// Probes observe and record; they never modify the registry. Each
// prober produces an Observation per target, and the Runner fans
// targets out across a bounded worker pool.
package probe

import (
	"context"
	"log"
	"sync"
	"time"

	"labtopo/internal/domain"
	"labtopo/internal/registry"
)

// Target is one registered address to check.
type Target struct {
	HostID  string
	Role    domain.Role
	Address string
}

// TargetsFrom flattens a registry into probe targets, one per
// (host, role) pair.
func TargetsFrom(reg *registry.Registry) []Target {
	var targets []Target
	for _, rec := range reg.Hosts() {
		for _, role := range rec.RolesPresent() {
			targets = append(targets, Target{
				HostID:  rec.ID,
				Role:    role,
				Address: rec.Addresses[role],
			})
		}
	}
	return targets
}

// Prober checks a single target.
type Prober interface {
	// Name identifies the probe in observations (tcp, nmap, snmp, ssh).
	Name() string
	// Applies reports whether the prober wants this target at all.
	Applies(t Target) bool
	// Probe runs the check. The returned observation reports failure via
	// its Success field; a non-nil error means the probe itself broke.
	Probe(ctx context.Context, t Target) (*domain.Observation, error)
}

// Recorder persists observations.
type Recorder interface {
	RecordObservation(ctx context.Context, obs *domain.Observation) error
}

// Runner fans probe targets out across a bounded worker pool.
type Runner struct {
	probers       []Prober
	recorder      Recorder
	maxConcurrent int
	timeout       time.Duration

	mu      sync.Mutex
	running bool
}

// NewRunner creates a probe runner.
func NewRunner(recorder Recorder, maxConcurrent int, timeout time.Duration, probers ...Prober) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 16
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Runner{
		probers:       probers,
		recorder:      recorder,
		maxConcurrent: maxConcurrent,
		timeout:       timeout,
	}
}

// job pairs a target with one prober that applies to it.
type job struct {
	target Target
	prober Prober
}

// Run probes every target with every applicable prober and records the
// results. Overlapping runs are collapsed: a call while a run is in
// flight returns immediately.
func (r *Runner) Run(ctx context.Context, targets []Target) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		log.Printf("probe: run already in progress, skipping")
		return
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	jobs := make(chan job)
	var wg sync.WaitGroup

	wg.Add(r.maxConcurrent)
	for i := 0; i < r.maxConcurrent; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				r.runOne(ctx, j)
			}
		}()
	}

	queued := 0
feed:
	for _, t := range targets {
		for _, p := range r.probers {
			if !p.Applies(t) {
				continue
			}
			select {
			case <-ctx.Done():
				break feed
			case jobs <- job{target: t, prober: p}:
				queued++
			}
		}
	}
	close(jobs)
	wg.Wait()

	log.Printf("probe: run complete (%d checks across %d targets)", queued, len(targets))
}

func (r *Runner) runOne(ctx context.Context, j job) {
	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	obs, err := j.prober.Probe(probeCtx, j.target)
	if err != nil {
		log.Printf("probe: %s on %s (%s): %v", j.prober.Name(), j.target.HostID, j.target.Address, err)
		return
	}
	if obs == nil {
		return
	}

	obs.HostID = j.target.HostID
	obs.Role = j.target.Role
	obs.Address = j.target.Address
	obs.Probe = j.prober.Name()
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now().UTC()
	}

	if err := r.recorder.RecordObservation(ctx, obs); err != nil {
		log.Printf("probe: record observation for %s: %v", j.target.HostID, err)
	}
}
