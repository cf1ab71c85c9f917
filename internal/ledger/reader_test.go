package ledger

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

type fixtureMessage struct {
	handleID      int64
	fromMe        bool
	date          int64
	isDelivered   *int64
	dateDelivered *int64
}

// makeStore builds a minimal chat.db-shaped fixture. withDeliveryCols drops
// the is_delivered/date_delivered columns to model older store schemas.
func makeStore(t *testing.T, withDeliveryCols bool, handles map[int64]string, msgs []fixtureMessage) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE handle (ROWID INTEGER PRIMARY KEY, id TEXT)`); err != nil {
		t.Fatalf("create handle: %v", err)
	}
	msgSchema := `CREATE TABLE message (ROWID INTEGER PRIMARY KEY, date INTEGER, text TEXT, is_from_me INTEGER, handle_id INTEGER`
	if withDeliveryCols {
		msgSchema += `, is_delivered INTEGER, date_delivered INTEGER`
	}
	msgSchema += `)`
	if _, err := db.Exec(msgSchema); err != nil {
		t.Fatalf("create message: %v", err)
	}

	for rowid, addr := range handles {
		if _, err := db.Exec(`INSERT INTO handle (ROWID, id) VALUES (?, ?)`, rowid, addr); err != nil {
			t.Fatalf("insert handle: %v", err)
		}
	}
	for _, m := range msgs {
		fromMe := 0
		if m.fromMe {
			fromMe = 1
		}
		if withDeliveryCols {
			if _, err := db.Exec(
				`INSERT INTO message (date, is_from_me, handle_id, is_delivered, date_delivered) VALUES (?, ?, ?, ?, ?)`,
				m.date, fromMe, m.handleID, m.isDelivered, m.dateDelivered); err != nil {
				t.Fatalf("insert message: %v", err)
			}
		} else {
			if _, err := db.Exec(
				`INSERT INTO message (date, is_from_me, handle_id) VALUES (?, ?, ?)`,
				m.date, fromMe, m.handleID); err != nil {
				t.Fatalf("insert message: %v", err)
			}
		}
	}
	return path
}

func i64(v int64) *int64 { return &v }

func TestReaderCheck(t *testing.T) {
	const canonical = "+15551234567"

	tests := []struct {
		name             string
		withDeliveryCols bool
		handles          map[int64]string
		msgs             []fixtureMessage
		wantFound        bool
		wantDelivered    bool
	}{
		{
			name:             "delivered message",
			withDeliveryCols: true,
			handles:          map[int64]string{1: "+15551234567"},
			msgs: []fixtureMessage{
				{handleID: 1, fromMe: true, date: 100, isDelivered: i64(1), dateDelivered: i64(100)},
			},
			wantFound:     true,
			wantDelivered: true,
		},
		{
			name:             "undelivered by flag",
			withDeliveryCols: true,
			handles:          map[int64]string{1: "+15551234567"},
			msgs: []fixtureMessage{
				{handleID: 1, fromMe: true, date: 100, isDelivered: i64(0), dateDelivered: i64(100)},
			},
			wantFound:     true,
			wantDelivered: false,
		},
		{
			name:             "undelivered by null timestamp",
			withDeliveryCols: true,
			handles:          map[int64]string{1: "+15551234567"},
			msgs: []fixtureMessage{
				{handleID: 1, fromMe: true, date: 100, isDelivered: i64(1), dateDelivered: nil},
			},
			wantFound:     true,
			wantDelivered: false,
		},
		{
			name:             "undelivered by zero timestamp",
			withDeliveryCols: true,
			handles:          map[int64]string{1: "+15551234567"},
			msgs: []fixtureMessage{
				{handleID: 1, fromMe: true, date: 100, isDelivered: i64(1), dateDelivered: i64(0)},
			},
			wantFound:     true,
			wantDelivered: false,
		},
		{
			name:             "no delivery columns is indeterminate",
			withDeliveryCols: false,
			handles:          map[int64]string{1: "+15551234567"},
			msgs: []fixtureMessage{
				{handleID: 1, fromMe: true, date: 100},
			},
			wantFound:     true,
			wantDelivered: false,
		},
		{
			name:             "no matching handle",
			withDeliveryCols: true,
			handles:          map[int64]string{1: "+19998887777"},
			wantFound:        false,
			wantDelivered:    false,
		},
		{
			name:             "handle but no outgoing message",
			withDeliveryCols: true,
			handles:          map[int64]string{1: "+15551234567"},
			msgs: []fixtureMessage{
				{handleID: 1, fromMe: false, date: 100, isDelivered: i64(1), dateDelivered: i64(100)},
			},
			wantFound:     true,
			wantDelivered: false,
		},
		{
			name:             "latest outgoing wins",
			withDeliveryCols: true,
			handles:          map[int64]string{1: "+15551234567"},
			msgs: []fixtureMessage{
				{handleID: 1, fromMe: true, date: 100, isDelivered: i64(1), dateDelivered: i64(100)},
				{handleID: 1, fromMe: true, date: 200, isDelivered: i64(0), dateDelivered: nil},
			},
			wantFound:     true,
			wantDelivered: false,
		},
		{
			name:             "suffix match on differently formatted handle",
			withDeliveryCols: true,
			handles:          map[int64]string{1: "tel:+1 (555) 123-4567"},
			msgs: []fixtureMessage{
				{handleID: 1, fromMe: true, date: 100, isDelivered: i64(1), dateDelivered: i64(100)},
			},
			wantFound:     true,
			wantDelivered: true,
		},
		{
			name:             "handle with fewer digits than identity does not match",
			withDeliveryCols: true,
			handles:          map[int64]string{1: "(555) 123-4567"},
			msgs: []fixtureMessage{
				{handleID: 1, fromMe: true, date: 100, isDelivered: i64(1), dateDelivered: i64(100)},
			},
			wantFound:     false,
			wantDelivered: false,
		},
		{
			name:             "most recent handle wins on collision",
			withDeliveryCols: true,
			handles: map[int64]string{
				1: "+215551234567",
				2: "+15551234567",
			},
			msgs: []fixtureMessage{
				{handleID: 1, fromMe: true, date: 100, isDelivered: i64(0), dateDelivered: nil},
				{handleID: 2, fromMe: true, date: 100, isDelivered: i64(1), dateDelivered: i64(100)},
			},
			wantFound:     true,
			wantDelivered: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := makeStore(t, tt.withDeliveryCols, tt.handles, tt.msgs)
			r := NewReader(path, zerolog.Nop())

			res, err := r.Check(canonical)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if res.Found != tt.wantFound {
				t.Errorf("Found = %v, want %v", res.Found, tt.wantFound)
			}
			if res.Delivered() != tt.wantDelivered {
				t.Errorf("Delivered = %v, want %v", res.Delivered(), tt.wantDelivered)
			}
		})
	}
}

func TestReaderCheckMissingStore(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "absent.db"), zerolog.Nop())
	res, err := r.Check("+15551234567")
	if err == nil {
		t.Fatal("expected error for missing store")
	}
	if !res.Undelivered {
		t.Error("missing store must read as undelivered")
	}
}
