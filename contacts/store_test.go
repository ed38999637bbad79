package contacts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAddr  = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	testAddr2 = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "contacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Put(&Contact{Name: "Alice", Address: testAddr}))

	c, err := s.Get("Alice")
	require.NoError(t, err)
	assert.Equal(t, testAddr, c.Address)

	// Overwrite.
	require.NoError(t, s.Put(&Contact{Name: "Alice", Address: testAddr2}))
	c, err = s.Get("Alice")
	require.NoError(t, err)
	assert.Equal(t, testAddr2, c.Address)

	require.NoError(t, s.Delete("Alice"))
	_, err = s.Get("Alice")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete("Alice"), ErrNotFound)
}

func TestPutValidation(t *testing.T) {
	s := testStore(t)
	assert.ErrorIs(t, s.Put(nil), ErrNilParam)
	assert.ErrorIs(t, s.Put(&Contact{Name: "", Address: testAddr}), ErrNilParam)
	assert.ErrorIs(t, s.Put(&Contact{Name: "Bad", Address: "nonsense"}), ErrInvalidContact)
}

func TestListSorted(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Put(&Contact{Name: "Bob", Address: testAddr2}))
	require.NoError(t, s.Put(&Contact{Name: "Alice", Address: testAddr}))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)
	assert.Equal(t, "Bob", list[1].Name)
}

func TestResolveNameCaseInsensitive(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Put(&Contact{Name: "Alice", Address: testAddr}))

	addr, ok := s.ResolveName("alice")
	assert.True(t, ok)
	assert.Equal(t, testAddr, addr)

	_, ok = s.ResolveName("carol")
	assert.False(t, ok)
}
