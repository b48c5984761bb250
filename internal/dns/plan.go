package dns

import (
	"log/slog"
)

// ActionType discriminates plan actions.
type ActionType string

// Plan action types.
const (
	ActionAdd    ActionType = "add"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
)

// Action is a single provider mutation. For updates and deletes the record
// carries the provider ID of the entry being mutated; for adds the ID is
// empty and the provider assigns one.
type Action struct {
	Type   ActionType
	Record Record
}

// Diff computes the ordered mutations that converge the zone's actual
// records onto the expected set, honoring the ownership protocol:
//
//   - A name is managed iff the actual set holds a TXT record with content
//     equal to owner on that name.
//   - Records on unmanaged names are never created over, updated, or
//     deleted. Such conflicts are logged and skipped.
//   - Updates carry the existing record's provider ID with the new content.
//   - Managed records with no expected counterpart are deleted.
//
// Adds and updates are emitted before deletes so a renamed host never loses
// coverage mid-plan. When actual already equals expected plus its implied
// markers, the plan is empty.
func Diff(expected, actual []Record, owner string) []Action {
	logger := slog.Default().With("component", "differ")

	managed := make(map[string]bool)

	for _, rec := range actual {
		if rec.Type == TypeTXT && rec.Content == owner {
			managed[rec.Name] = true
		}
	}

	unmanaged := make(map[string]bool)

	for _, rec := range actual {
		if !managed[rec.Name] {
			unmanaged[rec.Name] = true
		}
	}

	var upserts, deletes []Action

	for _, rec := range expected {
		existing, found := find(actual, rec)
		if found {
			if !managed[rec.Name] {
				logger.Info("skipping update, record not managed by this controller",
					"type", rec.Type,
					"name", rec.Name,
				)

				continue
			}

			if rec.Content != existing.Content {
				rec.ID = existing.ID
				upserts = append(upserts, Action{Type: ActionUpdate, Record: rec})
			}

			continue
		}

		if unmanaged[rec.Name] {
			logger.Info("skipping create, name occupied by foreign records",
				"type", rec.Type,
				"name", rec.Name,
			)

			continue
		}

		upserts = append(upserts, Action{Type: ActionAdd, Record: rec})
	}

	for _, rec := range actual {
		if !managed[rec.Name] {
			continue
		}

		if _, found := find(expected, rec); !found {
			deletes = append(deletes, Action{Type: ActionDelete, Record: rec})
		}
	}

	return append(upserts, deletes...)
}

func find(records []Record, rec Record) (Record, bool) {
	for _, candidate := range records {
		if candidate.Matches(rec) {
			return candidate, true
		}
	}

	return Record{}, false
}
