// Package checkpoint saves and restores sampler state in a bolt
// database.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"
	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/phydpm/dpm"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is the bucket name for all the checkpoints.
var MAIN = []byte("main")

// Data is the sampler state.
type Data struct {
	RunID     string        `json:"run_id"`
	Seed      int64         `json:"seed"`
	Iter      int           `json:"iter"`
	Alpha     float64       `json:"alpha"`
	Partition [][]dpm.Index `json:"partition"`
	Final     bool          `json:"final"`
}

// IO saves checkpoints not more often than the given number of
// seconds.
type IO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewIO creates a new IO. A nil database disables checkpointing.
func NewIO(db *bolt.DB, key []byte, seconds float64) *IO {
	return &IO{
		db:      db,
		key:     key,
		seconds: seconds,
		last:    time.Now(),
	}
}

// Save saves the checkpoint.
func (s *IO) Save(data *Data) error {
	// Even if saving fails, we do not want to run this code too often.
	s.SetNow()
	b, err := json.Marshal(data)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return err
	}
	err = SaveData(s.db, s.key, b)
	if err != nil {
		log.Error("Error saving checkpoint", err)
	}
	return err
}

// Load returns the saved checkpoint or nil if there is none.
func (s *IO) Load() (*Data, error) {
	b, err := LoadData(s.db, s.key)
	if err != nil || b == nil {
		return nil, err
	}
	var data *Data
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	if data == nil || len(data.Partition) == 0 {
		return nil, nil
	}
	if data.Final {
		log.Noticef("Found finished sampler checkpoint (run=%s, iter=%d)", data.RunID, data.Iter)
	} else {
		log.Noticef("Found unfinished sampler checkpoint (run=%s, iter=%d)", data.RunID, data.Iter)
	}
	return data, nil
}

// Old returns true if the last checkpoint was saved too long ago.
func (s *IO) Old() bool {
	return time.Since(s.last).Seconds() > s.seconds
}

// SetNow sets last checkpoint time to now.
func (s *IO) SetNow() {
	s.last = time.Now()
}

// SaveData saves values in bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadData loads data from bolt database. The returned slice is a
// copy, it stays valid after the transaction.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
