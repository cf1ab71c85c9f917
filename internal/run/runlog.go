package run

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

var logHeader = []string{"timestamp", "phone", "first_name", "status", "info", "run_id", "message"}

// CSVLog appends run records to a CSV file. The file is opened per append so
// no handle is held across the orchestrator's sleeps; the header is written
// only when the file is empty at write time. Safe to tail during a run.
type CSVLog struct {
	Path string
}

// Append writes one record, creating the file and header as needed.
func (l *CSVLog) Append(rec Record) error {
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat run log: %w", err)
	}

	w := csv.NewWriter(f)
	if fi.Size() == 0 {
		if err := w.Write(logHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	row := []string{
		ts.Format("2006-01-02T15:04:05"),
		rec.Phone,
		rec.FirstName,
		string(rec.Status),
		rec.Info,
		rec.RunID,
		rec.Message,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.Flush()
	return w.Error()
}
