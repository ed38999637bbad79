package contacts

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/xecsuite/libxecpay-go/tx"
)

var bucketContacts = []byte("contacts")

// Contact is one address-book entry. Resolved OpenAlias names are shown in
// the recipient field but never stored here; only plain addresses persist.
type Contact struct {
	// Name is the display name, the store key.
	Name string

	// Address is the payment address.
	Address string
}

// Store persists contacts in a bbolt database.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the contacts database at dbPath. The parent
// directory is created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("contacts: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("contacts: open bolt db: %w", err)
	}

	err = db.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(bucketContacts)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("contacts: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put stores a contact, overwriting any existing entry with the same name.
func (s *Store) Put(c *Contact) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("%w: contact name", ErrNilParam)
	}
	if !tx.IsValidAddress(c.Address) {
		return fmt.Errorf("%w: address %q", ErrInvalidContact, c.Address)
	}

	return s.db.Update(func(btx *bbolt.Tx) error {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("contacts: encode contact: %w", err)
		}
		return btx.Bucket(bucketContacts).Put([]byte(c.Name), buf.Bytes())
	})
}

// Get retrieves a contact by name.
func (s *Store) Get(name string) (*Contact, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrNilParam)
	}

	var c Contact
	err := s.db.View(func(btx *bbolt.Tx) error {
		data := btx.Bucket(bucketContacts).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
			return fmt.Errorf("contacts: decode contact: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes a contact by name.
func (s *Store) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name", ErrNilParam)
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		b := btx.Bucket(bucketContacts)
		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return b.Delete([]byte(name))
	})
}

// List returns all contacts sorted by name.
func (s *Store) List() ([]*Contact, error) {
	var out []*Contact
	err := s.db.View(func(btx *bbolt.Tx) error {
		return btx.Bucket(bucketContacts).ForEach(func(_, v []byte) error {
			var c Contact
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&c); err != nil {
				return fmt.Errorf("contacts: decode contact in list: %w", err)
			}
			out = append(out, &c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ResolveName looks up a contact by display name, case-insensitively, and
// returns its address. Used to expand contact names typed into a recipient
// field.
func (s *Store) ResolveName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	var addr string
	_ = s.db.View(func(btx *bbolt.Tx) error {
		return btx.Bucket(bucketContacts).ForEach(func(k, v []byte) error {
			if !strings.EqualFold(string(k), name) {
				return nil
			}
			var c Contact
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&c); err != nil {
				return nil
			}
			addr = c.Address
			return nil
		})
	})
	return addr, addr != ""
}
