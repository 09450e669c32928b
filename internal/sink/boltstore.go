// internal/sink/boltstore.go - BoltDB-backed alert history
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"hostguard/internal/alerting"
)

var AlertsBucket = []byte("alerts")

// Fixed-width fractional seconds keep lexicographic key order chronological.
const keyLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BoltStore keeps alert history in BoltDB so the web API can serve recent
// alerts after a restart. Keys are "<timestamp>|<metric>", which is the
// event identity and keeps bucket iteration in time order.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	store := &BoltStore{db: db, path: path}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(AlertsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return store, nil
}

func eventKey(event alerting.AlertEvent) []byte {
	return []byte(event.Timestamp.UTC().Format(keyLayout) + "|" + string(event.Metric))
}

func (s *BoltStore) Record(event alerting.AlertEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(AlertsBucket)

		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal alert: %w", err)
		}

		return b.Put(eventKey(event), data)
	})
	if err != nil {
		return &SinkError{Op: "put", Err: err}
	}
	return nil
}

// Recent returns up to limit alerts, newest first.
func (s *BoltStore) Recent(limit int) ([]alerting.AlertEvent, error) {
	var events []alerting.AlertEvent

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(AlertsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(events) >= limit {
				break
			}
			var event alerting.AlertEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return fmt.Errorf("failed to unmarshal alert %s: %w", k, err)
			}
			events = append(events, event)
		}
		return nil
	})

	return events, err
}

// Prune removes alerts older than the retention window and returns the
// number deleted.
func (s *BoltStore) Prune(retention time.Duration) (int, error) {
	cutoff := []byte(time.Now().UTC().Add(-retention).Format(keyLayout))
	pruned := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		c := tx.Bucket(AlertsBucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if string(k) >= string(cutoff) {
				break
			}
			if err := c.Delete(); err != nil {
				return err
			}
			pruned++
		}
		return nil
	})

	return pruned, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
