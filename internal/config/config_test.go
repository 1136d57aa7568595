package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Transport Rapid SRL", "srl")
	cfg.Business.FiscalCode = "RO12345678"
	cfg.Kafka.Brokers = []string{"localhost:9092"}

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Business, got.Business)
	assert.Equal(t, cfg.Fiscal.YearStart, got.Fiscal.YearStart)
	assert.Equal(t, cfg.Database, got.Database)
	assert.Equal(t, []string{"localhost:9092"}, got.Kafka.Brokers)
	assert.Equal(t, cfg.Kafka.Topic, got.Kafka.Topic)
	assert.Equal(t, cfg.Server.Addr, got.Server.Addr)
	assert.Equal(t, cfg.Log, got.Log)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company", "srl")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "srl", cfg.Business.EntityType)
	assert.Equal(t, "RON", cfg.Business.Currency)
	assert.Equal(t, "01-01", cfg.Fiscal.YearStart)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "registru.db", cfg.Database.DSN)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("business:\n  name: Partial\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Partial", cfg.Business.Name)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "01-01", cfg.Fiscal.YearStart)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Biz", "srl")
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "entity_type: srl")
	assert.Contains(t, contents, "year_start: 01-01")
	assert.Contains(t, contents, "driver: sqlite")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default("Test Biz", "srl")
	env := map[string]string{
		"REGISTRU_DB_DRIVER": "postgres",
		"DATABASE_DSN":       "host=db user=app dbname=books",
		"LOG_LEVEL":          "debug",
		"KAFKA_BROKERS":      "k1:9092,k2:9092",
		"REGISTRU_ADDR":      ":9090",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db user=app dbname=books", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadDir_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(filepath.Join(dir, FileName), Default("Env Biz", "srl")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REGISTRU_ADDR=:7070\n"), 0o644))
	t.Setenv("REGISTRU_ADDR", "")
	os.Unsetenv("REGISTRU_ADDR")

	cfg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	os.Unsetenv("REGISTRU_ADDR")
}

func TestFiscalYearStart(t *testing.T) {
	f := FiscalConfig{YearStart: "01-01"}
	got, err := f.FiscalYearStart(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)

	f = FiscalConfig{YearStart: "07-01"}
	got, err = f.FiscalYearStart(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = FiscalConfig{YearStart: "13-40"}.FiscalYearStart(time.Now())
	assert.Error(t, err)
}
