// Package ledger infers delivery status from the host messaging
// application's SQLite store (chat.db on macOS). The store is owned and
// mutated by another process, so every check runs against a disposable
// point-in-time copy, and the message-table schema is probed rather than
// assumed because it varies across host versions.
package ledger

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/bluefall/bluefall/internal/identity"
)

// CheckResult reports one ledger check. Found is false when no handle in the
// store matches the identity. Undelivered is conservative: a missing handle,
// a missing message row, or an indeterminate schema all read as undelivered.
type CheckResult struct {
	Found       bool
	Undelivered bool
}

// Delivered reports whether the check positively confirmed delivery.
func (r CheckResult) Delivered() bool {
	return r.Found && !r.Undelivered
}

// Reader answers "has the most recent outbound message to this identity been
// marked delivered?" against a snapshot of the store at Path.
type Reader struct {
	Path string
	Log  zerolog.Logger
}

// NewReader returns a Reader over the store at path.
func NewReader(path string, log zerolog.Logger) *Reader {
	return &Reader{Path: path, Log: log}
}

// Check takes a fresh snapshot of the store and inspects the newest outbound
// message to the handle whose digits-only form ends with the identity's
// digits. The snapshot is released before returning, on every path.
func (r *Reader) Check(canonical string) (CheckResult, error) {
	snap, err := openSnapshot(r.Path)
	if err != nil {
		return CheckResult{Undelivered: true}, err
	}
	defer snap.Close()

	handleID, addr, err := findHandle(snap.db, canonical)
	if err != nil {
		return CheckResult{Undelivered: true}, err
	}
	if handleID == 0 {
		r.Log.Debug().Str("identity", canonical).Msg("no handle match in ledger")
		return CheckResult{Found: false, Undelivered: true}, nil
	}
	r.Log.Debug().Str("identity", canonical).Str("handle", addr).Int64("rowid", handleID).Msg("handle matched")

	undelivered, err := latestOutgoingUndelivered(snap.db, handleID)
	if err != nil {
		return CheckResult{Found: true, Undelivered: true}, err
	}
	return CheckResult{Found: true, Undelivered: undelivered}, nil
}

// findHandle scans handles most-recent-first and returns the first whose
// digits-only id ends with the identity's digits. Returns rowid 0 when
// nothing matches. Short identities can collide; most-recent-first is the
// only tie-break, deliberately.
func findHandle(db *sql.DB, canonical string) (int64, string, error) {
	want := identity.DigitsOnly(canonical)
	if want == "" {
		return 0, "", nil
	}

	rows, err := db.Query(`SELECT ROWID, id FROM handle ORDER BY ROWID DESC`)
	if err != nil {
		return 0, "", fmt.Errorf("query handles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rowid int64
		var addr string
		if err := rows.Scan(&rowid, &addr); err != nil {
			return 0, "", fmt.Errorf("scan handle: %w", err)
		}
		if strings.HasSuffix(identity.DigitsOnly(addr), want) {
			return rowid, addr, nil
		}
	}
	return 0, "", rows.Err()
}

// latestOutgoingUndelivered inspects the newest message authored by the local
// user to the given handle. The delivered-flag and delivered-timestamp
// columns are probed independently; if neither exists the result is
// indeterminate and reads as undelivered so the caller keeps polling.
func latestOutgoingUndelivered(db *sql.DB, handleID int64) (bool, error) {
	cols, err := tableColumns(db, "message")
	if err != nil {
		return true, err
	}
	hasIsDelivered := cols["is_delivered"]
	hasDateDelivered := cols["date_delivered"]

	isDeliveredExpr := "NULL"
	if hasIsDelivered {
		isDeliveredExpr = "m.is_delivered"
	}
	dateDeliveredExpr := "NULL"
	if hasDateDelivered {
		dateDeliveredExpr = "m.date_delivered"
	}

	q := fmt.Sprintf(`SELECT m.ROWID, m.date, %s, %s
		FROM message m
		WHERE m.is_from_me = 1 AND m.handle_id = ?
		ORDER BY m.date DESC
		LIMIT 1`, isDeliveredExpr, dateDeliveredExpr)

	var (
		rowid         int64
		date          sql.NullInt64
		isDelivered   sql.NullInt64
		dateDelivered sql.NullInt64
	)
	err = db.QueryRow(q, handleID).Scan(&rowid, &date, &isDelivered, &dateDelivered)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("query latest outgoing: %w", err)
	}

	if !hasIsDelivered && !hasDateDelivered {
		return true, nil
	}
	undeliveredByFlag := hasIsDelivered && isDelivered.Valid && isDelivered.Int64 == 0
	undeliveredByDate := hasDateDelivered && (!dateDelivered.Valid || dateDelivered.Int64 == 0)
	return undeliveredByFlag || undeliveredByDate, nil
}

// tableColumns returns the column set of a table via PRAGMA table_info.
func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
