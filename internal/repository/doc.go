// Package repository defines the persistence interface for topology
// snapshots and probe observations.
//
// The in-memory registry is the source of truth for lookups; the
// repository exists so the loaded snapshot and the probe history
// survive restarts and can be queried over the API.
package repository
