package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/netmpowers/bookwatch/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddTermIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.AddTerm("piers anthony epub"); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}
	// Adding the same term again is a no-op success.
	if err := db.AddTerm("piers anthony epub"); err != nil {
		t.Fatalf("AddTerm repeat: %v", err)
	}

	terms, err := db.AllTerms()
	if err != nil {
		t.Fatalf("AllTerms: %v", err)
	}
	if len(terms) != 1 {
		t.Fatalf("got %d terms, want 1", len(terms))
	}

	exists, err := db.TermExists("piers anthony epub")
	if err != nil || !exists {
		t.Errorf("TermExists = %v, %v; want true, nil", exists, err)
	}
	exists, err = db.TermExists("unknown")
	if err != nil || exists {
		t.Errorf("TermExists(unknown) = %v, %v; want false, nil", exists, err)
	}
}

func TestAllTermsInsertionOrder(t *testing.T) {
	db := newTestDB(t)

	want := []string{"zeta", "alpha", "mike"}
	for _, term := range want {
		if err := db.AddTerm(term); err != nil {
			t.Fatalf("AddTerm(%q): %v", term, err)
		}
	}

	got, err := db.AllTerms()
	if err != nil {
		t.Fatalf("AllTerms: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d terms, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("terms[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTermIDNotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.TermID("nope"); !errors.Is(err, ErrTermNotFound) {
		t.Errorf("TermID = %v, want ErrTermNotFound", err)
	}
	if err := db.RemoveTerm("nope"); !errors.Is(err, ErrTermNotFound) {
		t.Errorf("RemoveTerm = %v, want ErrTermNotFound", err)
	}
}

func TestRemoveTermCascades(t *testing.T) {
	db := newTestDB(t)

	if err := db.AddTerm("keep"); err != nil {
		t.Fatal(err)
	}
	if err := db.AddTerm("drop"); err != nil {
		t.Fatal(err)
	}
	keepID, err := db.TermID("keep")
	if err != nil {
		t.Fatal(err)
	}
	dropID, err := db.TermID("drop")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		row := model.RemoteRow{Index: i, Subject: "s", Poster: "p", Group: "g", Age: "1d"}
		if _, err := db.AddItem(dropID, row); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}
	if _, err := db.AddItem(keepID, model.RemoteRow{Index: 9, Subject: "x", Poster: "y", Group: "z", Age: "2d"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if err := db.RemoveTerm("drop"); err != nil {
		t.Fatalf("RemoveTerm: %v", err)
	}

	// No orphaned items may remain for the deleted term.
	count, err := db.CountItems(dropID)
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if count != 0 {
		t.Errorf("deleted term still has %d items", count)
	}

	// The other term is untouched.
	count, err = db.CountItems(keepID)
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if count != 1 {
		t.Errorf("kept term has %d items, want 1", count)
	}
}

func TestRemoveItems(t *testing.T) {
	db := newTestDB(t)

	if err := db.AddTerm("term"); err != nil {
		t.Fatal(err)
	}
	id, err := db.TermID("term")
	if err != nil {
		t.Fatal(err)
	}

	var itemIDs []int64
	for i := 0; i < 3; i++ {
		row := model.RemoteRow{Index: i, Subject: "s", Poster: "p", Group: "g", Age: "1d"}
		itemID, err := db.AddItem(id, row)
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		itemIDs = append(itemIDs, itemID)
	}

	// Delete two real IDs plus one that doesn't exist; the missing one is
	// silently skipped.
	if err := db.RemoveItems(id, []int64{itemIDs[0], itemIDs[2], 9999}); err != nil {
		t.Fatalf("RemoveItems: %v", err)
	}

	items, err := db.ItemsFor(id)
	if err != nil {
		t.Fatalf("ItemsFor: %v", err)
	}
	if len(items) != 1 || items[0].ID != itemIDs[1] {
		t.Errorf("ItemsFor = %+v, want only item %d", items, itemIDs[1])
	}

	// Deleting nothing is a no-op.
	if err := db.RemoveItems(id, nil); err != nil {
		t.Errorf("RemoveItems(nil): %v", err)
	}
}

func TestRemoveItemsScopedToTerm(t *testing.T) {
	db := newTestDB(t)

	for _, term := range []string{"a", "b"} {
		if err := db.AddTerm(term); err != nil {
			t.Fatal(err)
		}
	}
	aID, _ := db.TermID("a")
	bID, _ := db.TermID("b")

	itemID, err := db.AddItem(bID, model.RemoteRow{Index: 1, Subject: "s", Poster: "p", Group: "g", Age: "1d"})
	if err != nil {
		t.Fatal(err)
	}

	// A deletion issued under the wrong term must not remove the item.
	if err := db.RemoveItems(aID, []int64{itemID}); err != nil {
		t.Fatalf("RemoveItems: %v", err)
	}
	count, err := db.CountItems(bID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("item was deleted across term boundary")
	}
}

func TestAddItemRoundTrip(t *testing.T) {
	db := newTestDB(t)

	if err := db.AddTerm("term"); err != nil {
		t.Fatal(err)
	}
	id, _ := db.TermID("term")

	row := model.RemoteRow{Index: 7, Subject: "Book A", Poster: "alice", Group: "grp1", Age: "1d"}
	if _, err := db.AddItem(id, row); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	items, err := db.ItemsFor(id)
	if err != nil {
		t.Fatalf("ItemsFor: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	it := items[0]
	if it.TermID != id || it.Index != 7 || it.Subject != "Book A" ||
		it.Poster != "alice" || it.Group != "grp1" || it.Age != "1d" {
		t.Errorf("stored item = %+v", it)
	}
}
