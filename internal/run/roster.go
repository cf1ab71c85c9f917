package run

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Recipient is one roster row. RawPhone is normalized later, per recipient,
// so one bad number never blocks the rest of the roster.
type Recipient struct {
	RawPhone  string
	FirstName string
}

// LoadRoster reads a CSV roster with a header row. The phone column is
// required and first_name optional, both matched case-insensitively.
func LoadRoster(path string) ([]Recipient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("roster %s is empty or missing headers", path)
	}

	phoneIdx, firstIdx := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "phone":
			if phoneIdx < 0 {
				phoneIdx = i
			}
		case "first_name":
			if firstIdx < 0 {
				firstIdx = i
			}
		}
	}
	if phoneIdx < 0 {
		return nil, fmt.Errorf("roster must include a 'phone' column, found: %v", rows[0])
	}

	recipients := make([]Recipient, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var rec Recipient
		if phoneIdx < len(row) {
			rec.RawPhone = row[phoneIdx]
		}
		if firstIdx >= 0 && firstIdx < len(row) {
			rec.FirstName = strings.TrimSpace(row[firstIdx])
		}
		recipients = append(recipients, rec)
	}
	return recipients, nil
}
