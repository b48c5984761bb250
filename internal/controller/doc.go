// Package controller wires the pieces together and runs the
// reconciliation loop.
//
// # Architecture
//
// Two watch producers (Ingresses, Services) feed a shared resource cache
// and wake the single reconciler through a bounded notification channel:
//
//	┌───────────────┐ events ┌─────────────────┐
//	│ watch producer├───────>│                 │
//	│ (Ingress)     │        │  resource.Cache │ snapshot ┌────────────┐
//	├───────────────┤        │                 ├─────────>│            │
//	│ watch producer├───────>└─────────────────┘          │ Loop       │
//	│ (Service)     │   notify (bounded, non-blocking)    │            │
//	└───────┬───────┴────────────────────────────────────>│            │
//	        │                                             └─────┬──────┘
//	        │                                                   │ plan
//	        │                                                   ▼
//	        │                                           Cloudflare API
//
// Each cycle the loop snapshots the cache, computes the desired record set,
// fetches the zone's actual records, diffs under the ownership protocol and
// applies the plan one action at a time. Every failure is confined to its
// cycle: the loop logs and retries on the next timer tick or change
// notification, whichever comes first. Nothing here ever terminates the
// process.
package controller
