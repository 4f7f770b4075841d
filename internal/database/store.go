// Package database provides SQLite storage for tracked search terms and
// the listing rows found for them.
package database

import (
	"github.com/netmpowers/bookwatch/internal/model"
)

// Store defines the interface for database operations. Handlers and the
// reconciler depend on this so tests can substitute an in-memory fake.
type Store interface {
	Close() error

	// Term operations
	AddTerm(text string) error
	TermExists(text string) (bool, error)
	TermID(text string) (int64, error)
	AllTerms() ([]string, error)
	RemoveTerm(text string) error

	// Item operations
	ItemsFor(termID int64) ([]model.FoundItem, error)
	AddItem(termID int64, row model.RemoteRow) (int64, error)
	RemoveItems(termID int64, itemIDs []int64) error
	CountItems(termID int64) (int, error)
}
