// Package resource provides the watched-resource model shared between the
// watch producers and the reconciliation loop: a closed set of typed
// snapshots (Ingress, Service), a mutex-guarded cache keyed by
// kind/namespace/name, and the list+watch producers that keep the cache
// current.
//
// The cache is the only state shared between goroutines. Producers take the
// lock only to mutate a single entry or swap a kind's whole set; the loop
// takes it only to copy a snapshot out. The lock is never held across
// network I/O, so a slow reconciliation cycle can never starve the
// producers.
package resource
