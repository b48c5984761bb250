package controller

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/cloudflare-dns-controller/internal/cloudflare"
	"github.com/lexfrei/cloudflare-dns-controller/internal/dns"
	"github.com/lexfrei/cloudflare-dns-controller/internal/metrics"
	"github.com/lexfrei/cloudflare-dns-controller/internal/resource"
)

// DefaultInterval is the steady-state reconciliation period when no change
// notification arrives earlier.
const DefaultInterval = 60 * time.Second

// Provider is the DNS provider surface the loop consumes.
type Provider interface {
	Zones(ctx context.Context) ([]cloudflare.Zone, error)
	Records(ctx context.Context, zoneID string) ([]dns.Record, error)
	CreateRecord(ctx context.Context, zoneID string, record dns.Record) error
	UpdateRecord(ctx context.Context, zoneID string, record dns.Record) error
	DeleteRecord(ctx context.Context, zoneID, recordID string) error
}

// Loop is the reconciler: the sole consumer of the cache and the sole
// executor of provider mutations.
type Loop struct {
	Cache    *resource.Cache
	Provider Provider

	// ZoneName restricts reconciliation to hostnames under this zone.
	ZoneName string

	// Owner is the TXT marker content identifying this controller.
	Owner string

	// Kinds are the resource kinds that must complete an initial list
	// before the first cycle runs.
	Kinds []resource.Kind

	// Notify wakes the loop between interval ticks. Must be the same
	// channel the producers send on.
	Notify <-chan struct{}

	// Interval is the steady-state period. Defaults to DefaultInterval.
	Interval time.Duration

	// Metrics records cycle and plan measurements.
	Metrics metrics.Collector
}

// Run blocks until the context is cancelled. It waits for every watched
// kind to deliver its initial list, then reconciles forever: one cycle,
// then wait for the interval timer or a change notification, whichever
// fires first. Cycle failures are logged and never propagate.
func (l *Loop) Run(ctx context.Context) error {
	logger := slog.Default().With("component", "reconciler")

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	if err := l.waitForInitialSync(ctx, logger); err != nil {
		return err
	}

	for {
		l.reconcile(ctx, logger)

		select {
		case <-time.After(interval):
		case <-l.Notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// waitForInitialSync blocks until every watched kind has listed at least
// once. A kind whose watch never delivers stalls the loop here forever,
// which is correct: with an incomplete picture any plan could delete
// records that are still wanted.
func (l *Loop) waitForInitialSync(ctx context.Context, logger *slog.Logger) error {
	for !l.Cache.Synced(l.Kinds...) {
		select {
		case <-l.Notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	logger.Info("initial sync complete", "resources", l.Cache.Len())

	return nil
}

// reconcile runs one full cycle. Errors abort the cycle only.
func (l *Loop) reconcile(ctx context.Context, logger *slog.Logger) {
	start := time.Now()

	snapshot := l.Cache.Snapshot()

	counts := make(map[resource.Kind]int)
	for _, res := range snapshot {
		counts[res.Key().Kind]++
	}

	for _, kind := range l.Kinds {
		l.Metrics.RecordObservedResources(ctx, string(kind), counts[kind])
	}

	expected := l.desiredRecords(snapshot)

	logger.Info("computed desired state",
		"resources", len(snapshot),
		"expected", len(expected),
	)
	l.Metrics.RecordDesiredRecords(ctx, len(expected))

	status := "success"

	if err := l.sync(ctx, logger, expected); err != nil {
		status = "error"

		logger.Error("reconciliation cycle failed", "error", err)
	}

	l.Metrics.RecordCycleDuration(ctx, status, time.Since(start))
}

// desiredRecords computes the desired set restricted to the managed zone.
func (l *Loop) desiredRecords(snapshot []resource.Resource) []dns.Record {
	var expected []dns.Record

	for _, rec := range dns.Compute(snapshot, l.Owner) {
		if strings.HasSuffix(rec.Name, l.ZoneName) {
			expected = append(expected, rec)
		}
	}

	return expected
}

// sync fetches actual state, diffs and applies the plan. An action failure
// is logged and does not stop the remaining actions; there is no rollback,
// the next cycle re-plans from whatever state the provider ended up in.
func (l *Loop) sync(ctx context.Context, logger *slog.Logger, expected []dns.Record) error {
	zone, err := l.resolveZone(ctx)
	if err != nil {
		return err
	}

	actual, err := l.Provider.Records(ctx, zone.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to list records for zone %q", zone.Name)
	}

	l.Metrics.RecordActualRecords(ctx, len(actual))

	plan := dns.Diff(expected, actual, l.Owner)

	planCounts := map[dns.ActionType]int{}
	for _, action := range plan {
		planCounts[action.Type]++
	}

	for _, actionType := range []dns.ActionType{dns.ActionAdd, dns.ActionUpdate, dns.ActionDelete} {
		l.Metrics.RecordPlanActions(ctx, string(actionType), planCounts[actionType])
	}

	logger.Info("computed plan",
		"actual", len(actual),
		"add", planCounts[dns.ActionAdd],
		"update", planCounts[dns.ActionUpdate],
		"delete", planCounts[dns.ActionDelete],
	)

	for _, action := range plan {
		actionLogger := logger.With(
			"action", string(action.Type),
			"type", string(action.Record.Type),
			"name", action.Record.Name,
			"content", action.Record.Content,
		)

		if err := l.apply(ctx, zone.ID, action); err != nil {
			actionLogger.Error("failed to apply action", "error", err)
			l.Metrics.RecordActionApplied(ctx, string(action.Type), "error")

			continue
		}

		actionLogger.Info("applied action")
		l.Metrics.RecordActionApplied(ctx, string(action.Type), "success")
	}

	return nil
}

// resolveZone locates the configured zone in the provider's zone list. The
// zone list may change between cycles, so a miss is a per-cycle error, not
// a startup failure.
func (l *Loop) resolveZone(ctx context.Context) (cloudflare.Zone, error) {
	zones, err := l.Provider.Zones(ctx)
	if err != nil {
		return cloudflare.Zone{}, errors.Wrap(err, "failed to list zones")
	}

	for _, zone := range zones {
		if zone.Name == l.ZoneName {
			return zone, nil
		}
	}

	return cloudflare.Zone{}, errors.Newf("zone %q not found", l.ZoneName)
}

func (l *Loop) apply(ctx context.Context, zoneID string, action dns.Action) error {
	switch action.Type {
	case dns.ActionAdd:
		return l.Provider.CreateRecord(ctx, zoneID, action.Record)
	case dns.ActionUpdate:
		return l.Provider.UpdateRecord(ctx, zoneID, action.Record)
	case dns.ActionDelete:
		return l.Provider.DeleteRecord(ctx, zoneID, action.Record.ID)
	default:
		return errors.Newf("unknown action type %q", action.Type)
	}
}
