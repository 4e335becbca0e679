// Package registry implements the immutable lab topology registry.
//
// A Registry is built once from a set of host records and never changes
// afterwards; lookups are pure reads and safe for concurrent use without
// locking. Reloading produces a whole new Registry which callers swap in
// atomically via Handle.
package registry

import (
	"fmt"
	"io"
	"iter"
	"os"
	"regexp"
	"sort"
	"sync/atomic"

	"labtopo/internal/codec"
	"labtopo/internal/domain"
)

// Registry holds the loaded topology. Immutable after New.
type Registry struct {
	hosts map[string]domain.HostRecord
	order []string // host ids sorted, for deterministic iteration
}

// New validates records and builds a registry. It fails atomically: any
// malformed record or duplicate host_id rejects the whole input.
func New(records []domain.HostRecord) (*Registry, error) {
	r := &Registry{
		hosts: make(map[string]domain.HostRecord, len(records)),
		order: make([]string, 0, len(records)),
	}

	for i := range records {
		rec := &records[i]
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.hosts[rec.ID]; exists {
			return nil, &domain.DuplicateKeyError{HostID: rec.ID}
		}
		r.hosts[rec.ID] = rec.Clone()
		r.order = append(r.order, rec.ID)
	}

	sort.Strings(r.order)
	return r, nil
}

// Load parses a topology from r using the given importer and builds a
// registry from it.
func Load(r io.Reader, imp codec.Importer) (*Registry, error) {
	topo, err := imp.Parse(r)
	if err != nil {
		return nil, err
	}
	return New(topo.Hosts)
}

// LoadFile loads a topology file, choosing the codec by format name
// (see codec.ImporterFor).
func LoadFile(path, format string) (*Registry, error) {
	imp, err := codec.ImporterFor(format)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open topology file: %w", err)
	}
	defer f.Close()

	reg, err := Load(f, imp)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return reg, nil
}

// Len returns the number of registered hosts.
func (r *Registry) Len() int {
	return len(r.order)
}

// Get returns the record for id, or a NotFoundError.
func (r *Registry) Get(id string) (domain.HostRecord, error) {
	rec, ok := r.hosts[id]
	if !ok {
		return domain.HostRecord{}, &domain.NotFoundError{HostID: id}
	}
	return rec.Clone(), nil
}

// Hosts returns all records sorted by host_id.
func (r *Registry) Hosts() []domain.HostRecord {
	out := make([]domain.HostRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.hosts[id].Clone())
	}
	return out
}

// ListByRole yields (host_id, address) pairs for every host that defines
// the role, sorted by host_id. The sequence is finite and restartable.
func (r *Registry) ListByRole(role domain.Role) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, id := range r.order {
			addr, ok := r.hosts[id].Addresses[role]
			if !ok {
				continue
			}
			if !yield(id, addr) {
				return
			}
		}
	}
}

// Search returns records whose host_id matches re, sorted by host_id.
func (r *Registry) Search(re *regexp.Regexp) []domain.HostRecord {
	var out []domain.HostRecord
	for _, id := range r.order {
		if re.MatchString(id) {
			out = append(out, r.hosts[id].Clone())
		}
	}
	return out
}

// Topology rebuilds the codec aggregate from the registry, sorted by
// host_id.
func (r *Registry) Topology() *domain.Topology {
	return &domain.Topology{Hosts: r.Hosts()}
}

// Handle is an atomically swappable reference to the current registry.
// The server reads through a Handle so a reload never disturbs in-flight
// lookups.
type Handle struct {
	ptr atomic.Pointer[Registry]
}

// NewHandle creates a handle pointing at reg.
func NewHandle(reg *Registry) *Handle {
	h := &Handle{}
	h.ptr.Store(reg)
	return h
}

// Current returns the registry currently in service.
func (h *Handle) Current() *Registry {
	return h.ptr.Load()
}

// Swap installs a freshly loaded registry.
func (h *Handle) Swap(reg *Registry) {
	h.ptr.Store(reg)
}
