// Package domain defines the core types of the lab topology registry:
// host records keyed by a fixed set of network roles, the topology
// aggregate, probe observations, and the registry error taxonomy.
//
// Records are authored once in a static source file and are read-only
// after load. Nothing in this package mutates a record in place.
package domain
