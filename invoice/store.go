package invoice

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.etcd.io/bbolt"
)

var bucketInvoices = []byte("invoices")

// StoredInvoice wraps an invoice with its payment status.
type StoredInvoice struct {
	Invoice *Invoice `json:"invoice"`

	// Paid is set once a transaction paying this invoice broadcasts.
	Paid bool `json:"paid"`

	// TxID is the paying transaction, set together with Paid.
	TxID string `json:"txid,omitempty"`
}

// Store persists invoices in a bbolt database.
type Store struct {
	db *bbolt.DB
}

// OpenStore opens or creates the invoice database at dbPath. The parent
// directory is created if it does not exist.
func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("invoice: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("invoice: open bolt db: %w", err)
	}
	err = db.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(bucketInvoices)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("invoice: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put stores an invoice as unpaid, overwriting any entry with the same id.
func (s *Store) Put(inv *Invoice) error {
	if inv == nil {
		return fmt.Errorf("%w: invoice", ErrNilParam)
	}
	if err := inv.Validate(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		data, err := json.Marshal(&StoredInvoice{Invoice: inv})
		if err != nil {
			return fmt.Errorf("invoice: encode: %w", err)
		}
		return btx.Bucket(bucketInvoices).Put([]byte(inv.ID), data)
	})
}

// Get retrieves an invoice by id.
func (s *Store) Get(id string) (*StoredInvoice, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id", ErrNilParam)
	}
	var stored StoredInvoice
	err := s.db.View(func(btx *bbolt.Tx) error {
		data := btx.Bucket(bucketInvoices).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return json.Unmarshal(data, &stored)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// SetPaid marks an invoice paid by the given transaction.
func (s *Store) SetPaid(id, txid string) error {
	if id == "" {
		return fmt.Errorf("%w: id", ErrNilParam)
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		b := btx.Bucket(bucketInvoices)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		var stored StoredInvoice
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("invoice: decode: %w", err)
		}
		stored.Paid = true
		stored.TxID = txid
		out, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("invoice: encode: %w", err)
		}
		return b.Put([]byte(id), out)
	})
}

// Delete removes an invoice by id.
func (s *Store) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id", ErrNilParam)
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		b := btx.Bucket(bucketInvoices)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return b.Delete([]byte(id))
	})
}

// List returns all invoices sorted by id. When unpaidOnly is set, paid
// invoices are filtered out.
func (s *Store) List(unpaidOnly bool) ([]*StoredInvoice, error) {
	var out []*StoredInvoice
	err := s.db.View(func(btx *bbolt.Tx) error {
		return btx.Bucket(bucketInvoices).ForEach(func(_, v []byte) error {
			var stored StoredInvoice
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("invoice: decode in list: %w", err)
			}
			if unpaidOnly && stored.Paid {
				return nil
			}
			out = append(out, &stored)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Invoice.ID < out[j].Invoice.ID })
	return out, nil
}
