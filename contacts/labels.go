package contacts

import (
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketLabels = []byte("labels")

// SetLabel stores a free-text label for a transaction id. An empty label
// removes the entry.
func (s *Store) SetLabel(txid, label string) error {
	if txid == "" {
		return fmt.Errorf("%w: txid", ErrNilParam)
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		b, err := btx.CreateBucketIfNotExists(bucketLabels)
		if err != nil {
			return err
		}
		if label == "" {
			return b.Delete([]byte(txid))
		}
		return b.Put([]byte(txid), []byte(label))
	})
}

// GetLabel returns the label stored for a transaction id, or "" when none.
func (s *Store) GetLabel(txid string) string {
	var label string
	_ = s.db.View(func(btx *bbolt.Tx) error {
		b := btx.Bucket(bucketLabels)
		if b == nil {
			return nil
		}
		label = string(b.Get([]byte(txid)))
		return nil
	})
	return label
}
