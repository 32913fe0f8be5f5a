// Package audit persists a record of past decisions -- never the
// compiled table itself, which core.Table never serializes -- the same
// separation cmd/mservice/storage keeps between a Spec (never persisted
// by core) and machine state (persisted by storage.Storage).
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("decisions")

// Entry is one audit record: an input, the output it decided to (or
// the error it failed with), and when.
type Entry struct {
	At     time.Time              `json:"at"`
	Input  map[string]interface{} `json:"input"`
	Output map[string]interface{} `json:"output,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// Log is an append-only, bbolt-backed audit log, grounded on
// cmd/mservice/storage/bolt.Storage's Open/Close/logf shape.
type Log struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

// NewLog makes a Log backed by filename, not yet opened.
func NewLog(filename string) *Log {
	return &Log{filename: filename}
}

// Open creates (or opens) the bbolt file and its decisions bucket.
func (l *Log) Open() error {
	opts := &bolt.Options{Timeout: time.Second}
	db, err := bolt.Open(l.filename, 0644, opts)
	if err != nil {
		return err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return err
	}
	l.db = db
	return nil
}

// Close closes the underlying bbolt file.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record implements service.AuditLog: one entry per decision, keyed by
// a monotonically increasing sequence number so the bucket's natural
// (byte-sorted) iteration order is chronological.
func (l *Log) Record(ctx context.Context, input, output map[string]interface{}, decideErr error) error {
	e := Entry{At: time.Now().UTC(), Input: input, Output: output}
	if decideErr != nil {
		e.Error = decideErr.Error()
	}
	js, err := json.Marshal(&e)
	if err != nil {
		return err
	}

	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		l.logf("Record seq=%d", seq)
		return b.Put(seqKey(seq), js)
	})
}

// Tail returns the most recent n entries, oldest first.
func (l *Log) Tail(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry
	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		c := b.Cursor()
		var keys, vals [][]byte
		for k, v := c.Last(); k != nil && len(keys) < n; k, v = c.Prev() {
			keys = append(keys, append([]byte{}, k...))
			vals = append(vals, append([]byte{}, v...))
		}
		for i := len(vals) - 1; i >= 0; i-- {
			var e Entry
			if err := json.Unmarshal(vals[i], &e); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

func seqKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%020d", seq))
}

func (l *Log) logf(format string, args ...interface{}) {
	if l.Debug {
		log.Printf("audit.Log."+format, args...)
	}
}
