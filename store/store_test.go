package store_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhub/db"
	"studyhub/store"
)

type note struct {
	ID      int
	Owner   int
	Title   string
	Content string
}

var noteDesc = store.Descriptor[note]{
	Table:   "notes",
	Columns: []string{"id", "owner", "title", "content", "created_at"},
	Scan: func(row store.Scanner) (note, error) {
		var n note
		var createdAt sql.NullTime
		err := row.Scan(&n.ID, &n.Owner, &n.Title, &n.Content, &createdAt)
		return n, err
	},
}

// testDB connects to the database named by TEST_DATABASE_DSN, migrating and
// truncating it. Tests are skipped when the variable is unset.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping database tests")
	}
	conn, err := db.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	_, err = conn.Exec("TRUNCATE users RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	return conn
}

func createUser(t *testing.T, conn *sql.DB, username string) int {
	t.Helper()
	var id int
	err := conn.QueryRow(
		"INSERT INTO users (username, email, password) VALUES ($1, $2, 'x') RETURNING id",
		username, username+"@example.com").Scan(&id)
	require.NoError(t, err)
	return id
}

func TestStoreOwnershipScoping(t *testing.T) {
	conn := testDB(t)
	notes := store.New(conn, noteDesc)
	ctx := context.Background()

	alice := createUser(t, conn, "alice")
	bob := createUser(t, conn, "bob")

	created, err := notes.Create(ctx, alice, []string{"title", "content"}, []any{"groceries", "milk"})
	require.NoError(t, err)
	assert.Equal(t, alice, created.Owner)
	assert.Equal(t, "groceries", created.Title)

	t.Run("owner can read", func(t *testing.T) {
		got, err := notes.Get(ctx, created.ID, alice)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("foreign owner indistinguishable from missing", func(t *testing.T) {
		_, err := notes.Get(ctx, created.ID, bob)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, missingErr := notes.Get(ctx, 99999, bob)
		assert.ErrorIs(t, missingErr, store.ErrNotFound)
		assert.Equal(t, missingErr.Error(), err.Error())
	})

	t.Run("foreign update rejected", func(t *testing.T) {
		_, err := notes.Update(ctx, created.ID, bob, map[string]any{"title": "stolen"})
		assert.ErrorIs(t, err, store.ErrNotFound)

		got, err := notes.Get(ctx, created.ID, alice)
		require.NoError(t, err)
		assert.Equal(t, "groceries", got.Title)
	})

	t.Run("foreign delete rejected", func(t *testing.T) {
		assert.ErrorIs(t, notes.Delete(ctx, created.ID, bob), store.ErrNotFound)
	})

	t.Run("list is owner scoped", func(t *testing.T) {
		_, err := notes.Create(ctx, bob, []string{"title"}, []any{"bob note"})
		require.NoError(t, err)

		aliceNotes, err := notes.List(ctx, alice)
		require.NoError(t, err)
		require.Len(t, aliceNotes, 1)
		assert.Equal(t, created.ID, aliceNotes[0].ID)
	})
}

func TestStorePartialUpdate(t *testing.T) {
	conn := testDB(t)
	notes := store.New(conn, noteDesc)
	ctx := context.Background()
	alice := createUser(t, conn, "alice")

	created, err := notes.Create(ctx, alice, []string{"title", "content"}, []any{"draft", "original"})
	require.NoError(t, err)

	t.Run("only supplied columns change", func(t *testing.T) {
		updated, err := notes.Update(ctx, created.ID, alice, map[string]any{"content": "revised"})
		require.NoError(t, err)
		assert.Equal(t, "draft", updated.Title)
		assert.Equal(t, "revised", updated.Content)
	})

	t.Run("empty change set degrades to get", func(t *testing.T) {
		got, err := notes.Update(ctx, created.ID, alice, nil)
		require.NoError(t, err)
		assert.Equal(t, "draft", got.Title)
		assert.Equal(t, "revised", got.Content)
	})
}

func TestStoreDelete(t *testing.T) {
	conn := testDB(t)
	notes := store.New(conn, noteDesc)
	ctx := context.Background()
	alice := createUser(t, conn, "alice")

	created, err := notes.Create(ctx, alice, []string{"title"}, []any{"temp"})
	require.NoError(t, err)

	require.NoError(t, notes.Delete(ctx, created.ID, alice))

	_, err = notes.Get(ctx, created.ID, alice)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, notes.Delete(ctx, created.ID, alice), store.ErrNotFound)
}
