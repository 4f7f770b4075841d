// Package reconcile diffs a freshly fetched listing against the stored
// items for a term and applies the difference to storage.
package reconcile

import (
	"fmt"

	"github.com/netmpowers/bookwatch/internal/model"
)

// Store is the slice of storage the reconciler needs.
type Store interface {
	ItemsFor(termID int64) ([]model.FoundItem, error)
	AddItem(termID int64, row model.RemoteRow) (int64, error)
	RemoveItems(termID int64, itemIDs []int64) error
}

// Run performs one reconciliation pass for a term: a symmetric difference
// on the identity key (subject, poster, group).
//
// Stored items whose key no longer appears in the remote listing are
// deleted; remote rows whose key is not yet stored are inserted and
// returned as the delta, preserving listing order. Insertions happen
// row-by-row as they are discovered, deletions in one batch at the end, so
// an interrupted pass can at worst leave an extra row behind but never
// loses an item the site still shows.
func Run(store Store, termID int64, remote []model.RemoteRow) (delta []model.RemoteRow, deleted []int64, err error) {
	stored, err := store.ItemsFor(termID)
	if err != nil {
		return nil, nil, fmt.Errorf("load stored items: %w", err)
	}

	remoteKeys := make(map[model.Key]struct{}, len(remote))
	for _, row := range remote {
		remoteKeys[row.Key()] = struct{}{}
	}
	storedKeys := make(map[model.Key]struct{}, len(stored))
	for _, item := range stored {
		storedKeys[item.Key()] = struct{}{}
	}

	// Stored but gone from the site: collect for deletion.
	for _, item := range stored {
		if _, ok := remoteKeys[item.Key()]; !ok {
			deleted = append(deleted, item.ID)
		}
	}

	// On the site but not stored: persist immediately and report.
	// Matching is against the stored snapshot taken above, so a listing
	// that repeats a key within one fetch inserts each occurrence.
	for _, row := range remote {
		if _, ok := storedKeys[row.Key()]; ok {
			continue
		}
		if _, err := store.AddItem(termID, row); err != nil {
			return delta, deleted, fmt.Errorf("add item for term %d: %w", termID, err)
		}
		delta = append(delta, row)
	}

	if err := store.RemoveItems(termID, deleted); err != nil {
		return delta, deleted, fmt.Errorf("remove items for term %d: %w", termID, err)
	}
	return delta, deleted, nil
}
