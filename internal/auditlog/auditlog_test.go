package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Source:    "cli",
		Action:    "entry.post",
		Subject:   "2025-000001",
		Details:   "Factura 12, 1190.00",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "audit-log.csv"))
	require.NoError(t, err)
	assert.Equal(t, Header+"\n"+`2025-01-15T10:30:00Z,cli,entry.post,2025-000001,"Factura 12, 1190.00"`+"\n", string(data))
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Source = "api"
	e2.Action = "account.deactivate"
	e2.Subject = "5311"
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cli", entries[0].Source)
	assert.Equal(t, "account.deactivate", entries[1].Action)
	assert.True(t, testTime.Equal(entries[1].Timestamp))
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, Path), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.ErrorContains(t, err, "expected 5 fields")

	_, err = UnmarshalEntry([]string{"yesterday", "cli", "a", "b", "c"})
	assert.ErrorContains(t, err, "parsing timestamp")
}

func TestLog_Record(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, "api")
	l.now = func() time.Time { return testTime }

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Record("entry.post", fmt.Sprintf("2025-%06d", i+1), ""))
		}()
	}
	wg.Wait()

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
	for _, e := range entries {
		assert.Equal(t, "api", e.Source)
	}
}

func TestLog_Nil(t *testing.T) {
	var l *Log
	assert.NoError(t, l.Record("entry.post", "2025-000001", ""))
}
