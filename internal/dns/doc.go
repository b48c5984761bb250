// Package dns contains the pure reconciliation core: computing the desired
// DNS record set from watched cluster resources and diffing it against the
// records a zone actually holds.
//
// # Ownership
//
// Every hostname the controller creates records for is marked with a TXT
// record whose content is the controller identity (OwnerContent). A name
// without that marker is foreign: the differ never creates alongside,
// updates, or deletes records on it, no matter what the desired state says.
// This is what makes it safe to point the controller at a zone that also
// holds manually managed records.
//
// # Purity
//
// Compute and Diff take plain values and return plain values. They perform
// no I/O beyond conflict logging, which keeps the convergence and ownership
// properties directly testable.
package dns
