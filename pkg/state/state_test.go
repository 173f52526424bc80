package state

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/nouzen/pkg/core"
)

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "installed"))
	require.NoError(t, err)

	_, err = s.Lookup("curl")
	assert.ErrorIs(t, err, core.ErrNotInstalled)

	rec := &Record{Name: "curl", Version: "8.5.0-2", AutoInstall: true, Entries: []string{"usr/bin/curl", "usr/bin"}}
	require.NoError(t, s.Save(rec))
	require.NoError(t, s.Save(&Record{Name: "bash", Version: "5.2"}))

	got, err := s.Lookup("curl")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"bash", "curl"}, names)

	require.NoError(t, s.Delete("curl"))
	require.NoError(t, s.Delete("curl"))
	_, err = s.Lookup("curl")
	assert.ErrorIs(t, err, core.ErrNotInstalled)
}

func TestFileStoreMissingVersion(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken"), []byte("Auto-Install: 1\n"), 0644))

	_, err = s.Lookup("broken")
	assert.ErrorIs(t, err, core.ErrMissingField)
}

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS installed").WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return s, mock
}

func TestSQLiteStoreLookup(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"version", "auto_install", "entries"}).
		AddRow("8.5.0-2", 1, "usr/bin/curl,usr/bin")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version, auto_install, entries FROM installed WHERE name = ?")).
		WithArgs("curl").
		WillReturnRows(rows)

	rec, err := s.Lookup("curl")
	require.NoError(t, err)
	assert.Equal(t, &Record{Name: "curl", Version: "8.5.0-2", AutoInstall: true, Entries: []string{"usr/bin/curl", "usr/bin"}}, rec)

	mock.ExpectQuery("SELECT version").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"version", "auto_install", "entries"}))
	_, err = s.Lookup("ghost")
	assert.ErrorIs(t, err, core.ErrNotInstalled)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreSaveListDelete(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT OR REPLACE INTO installed")).
		WithArgs("curl", "8.5.0-2", 0, "usr/bin/curl").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.Save(&Record{Name: "curl", Version: "8.5.0-2", Entries: []string{"usr/bin/curl"}}))

	mock.ExpectQuery("SELECT name FROM installed").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("bash").AddRow("curl"))
	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"bash", "curl"}, names)

	mock.ExpectExec("DELETE FROM installed").
		WithArgs("curl").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Delete("curl"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Prefix = t.TempDir()

	s, err := Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	require.NoError(t, s.Close())

	cfg.StateBackend = "bolt"
	_, err = Open(cfg)
	assert.Error(t, err)
}
