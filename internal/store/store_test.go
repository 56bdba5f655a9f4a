package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/arroyoseco/abate/internal/apperr"
)

func tempDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "abate.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndGet(t *testing.T) {
	db := tempDB(t)
	now := time.Now().UTC().Truncate(time.Second)
	row := SessionRow{
		ID:        "sess-1",
		State:     []byte(`{"photos":[]}`),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.UpsertSession(row); err != nil {
		t.Fatalf("UpsertSession: %v", err)
	}

	got, err := db.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if string(got.State) != `{"photos":[]}` {
		t.Errorf("state = %s", got.State)
	}

	// Upsert with new state keeps created_at but replaces the snapshot.
	row.State = []byte(`{"photos":["p1"]}`)
	row.UpdatedAt = now.Add(time.Minute)
	if err := db.UpsertSession(row); err != nil {
		t.Fatalf("UpsertSession (update): %v", err)
	}
	got, _ = db.GetSession("sess-1")
	if string(got.State) != `{"photos":["p1"]}` {
		t.Errorf("updated state = %s", got.State)
	}
}

func TestGetMissing(t *testing.T) {
	db := tempDB(t)
	_, err := db.GetSession("nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListOrderedByUpdate(t *testing.T) {
	db := tempDB(t)
	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"old", "mid", "new"} {
		row := SessionRow{
			ID:        id,
			State:     []byte("{}"),
			CreatedAt: base,
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.UpsertSession(row); err != nil {
			t.Fatalf("UpsertSession(%s): %v", id, err)
		}
	}
	rows, err := db.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len = %d, want 3", len(rows))
	}
	if rows[0].ID != "new" || rows[2].ID != "old" {
		t.Errorf("order = %s,%s,%s", rows[0].ID, rows[1].ID, rows[2].ID)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	db := tempDB(t)
	now := time.Now().UTC()
	_ = db.UpsertSession(SessionRow{ID: "x", State: []byte("{}"), CreatedAt: now, UpdatedAt: now})

	if err := db.DeleteSession("x"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := db.GetSession("x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("session survived delete: %v", err)
	}
	// Deleting again must not error.
	if err := db.DeleteSession("x"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}
