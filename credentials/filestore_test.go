package credentials_test

import (
	"testing"

	"github.com/causal/go-doodle/credentials"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PathIsStablePerIdentity(t *testing.T) {
	dir := t.TempDir()
	a := credentials.NewFileStore(dir, "john@example.com", "pw", "sig")
	b := credentials.NewFileStore(dir, "john@example.com", "pw", "sig")
	c := credentials.NewFileStore(dir, "jane@example.com", "pw", "sig")

	require.Equal(t, a.Path(), b.Path())
	require.NotEqual(t, a.Path(), c.Path())
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := credentials.NewFileStore(t.TempDir(), "john@example.com", "pw", "sig")
	set, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, set)
}

func TestFileStore_SaveLoadDelete(t *testing.T) {
	store := credentials.NewFileStore(t.TempDir(), "john@example.com", "pw", "sig")

	set := credentials.Set{
		"token": {
			Domain:            "doodle.com",
			IncludeSubdomains: true,
			Path:              "/",
			Secure:            true,
			Expires:           1764547200,
			Name:              "token",
			Value:             "AbCdEf123",
		},
	}
	require.NoError(t, store.Save(set))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, set, loaded)

	require.NoError(t, store.Delete())
	loaded, err = store.Load()
	require.NoError(t, err)
	require.Empty(t, loaded)

	// Deleting again is not an error.
	require.NoError(t, store.Delete())
}
