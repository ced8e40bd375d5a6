// Package journal records per-item outcomes in a bbolt database inside the
// log directory so that a later run with --resume can skip files that were
// already handled and have not changed since.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// FileName is the database created inside the log directory.
const FileName = "minimarker.db"

// Bucket names.
const (
	runsBucket  = "runs"
	itemsBucket = "items"
)

// Status mirrors the batch outcome of one item.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Fingerprint identifies a source file plus the settings it was processed
// with. Any difference means the item must be processed again.
type Fingerprint struct {
	Size     int64  `json:"size"`
	ModTime  int64  `json:"mod_time"` // Unix nanoseconds.
	Target   int64  `json:"target"`
	Settings string `json:"settings"` // Resize policy or scale, rendered as text.
}

// FingerprintOf stats path and combines it with the processing settings.
func FingerprintOf(path string, target int64, settings string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{
		Size:     info.Size(),
		ModTime:  info.ModTime().UnixNano(),
		Target:   target,
		Settings: settings,
	}, nil
}

// Record is the stored outcome of one item.
type Record struct {
	Source      string      `json:"source"`
	Dest        string      `json:"dest"`
	Status      Status      `json:"status"`
	Fingerprint Fingerprint `json:"fingerprint"`
	RunID       string      `json:"run_id"`
	Finished    time.Time   `json:"finished"`
	Quality     int         `json:"quality,omitempty"`
	Bitrate     int64       `json:"bitrate,omitempty"`
	FinalSize   int64       `json:"final_size"`
	Reason      string      `json:"reason,omitempty"`
}

// RunInfo describes one batch run.
type RunInfo struct {
	ID      string    `json:"id"`
	Started time.Time `json:"started"`
	Input   string    `json:"input"`
}

// Journal is an open outcome database. Methods are goroutine-safe; bbolt
// serializes writers.
type Journal struct {
	db  *bbolt.DB
	run RunInfo
}

// Open opens (or creates) the journal in dir and registers a new run for
// input.
func Open(dir, input string) (*Journal, error) {
	path := filepath.Join(dir, FileName)
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	j := &Journal{
		db:  db,
		run: RunInfo{ID: uuid.NewString(), Started: time.Now(), Input: input},
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(itemsBucket)); err != nil {
			return err
		}
		runs, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		if err != nil {
			return err
		}
		data, err := json.Marshal(j.run)
		if err != nil {
			return err
		}
		return runs.Put([]byte(j.run.ID), data)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal %s: %w", path, err)
	}
	return j, nil
}

// RunID returns the identifier of the current run.
func (j *Journal) RunID() string { return j.run.ID }

// Close closes the database.
func (j *Journal) Close() error { return j.db.Close() }

// Put stores rec under its source path, stamping it with the current run.
func (j *Journal) Put(rec Record) error {
	rec.RunID = j.run.ID
	if rec.Finished.IsZero() {
		rec.Finished = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(itemsBucket)).Put([]byte(rec.Source), data)
	})
}

// ErrNotFound is returned by Lookup for unknown sources.
var ErrNotFound = errors.New("no journal record")

// Lookup returns the last stored record for source.
func (j *Journal) Lookup(source string) (Record, error) {
	var rec Record
	err := j.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(itemsBucket)).Get([]byte(source))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// Unchanged reports whether source was handled successfully (succeeded or
// skipped) by an earlier run with the same fingerprint and its destination
// still exists. The matching record is returned when true.
func (j *Journal) Unchanged(source string, fp Fingerprint) (Record, bool) {
	rec, err := j.Lookup(source)
	if err != nil || rec.Status == StatusFailed || rec.Fingerprint != fp {
		return Record{}, false
	}
	if _, err := os.Stat(rec.Dest); err != nil {
		return Record{}, false
	}
	return rec, true
}

// Runs returns every recorded run, oldest first.
func (j *Journal) Runs() ([]RunInfo, error) {
	var runs []RunInfo
	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(runsBucket)).ForEach(func(_, v []byte) error {
			var r RunInfo
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			runs = append(runs, r)
			return nil
		})
	})
	slices.SortFunc(runs, func(a, b RunInfo) int { return a.Started.Compare(b.Started) })
	return runs, err
}
