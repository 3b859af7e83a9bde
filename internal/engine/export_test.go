package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owrapper/configsync/internal/config"
	"github.com/owrapper/configsync/internal/yamlfile"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
}

func seedScenario(st *fakeStore) {
	st.seed(tableConfigParameter, map[string]any{"key": "web.base.url", "value": "http://x"})
	st.seed(tableSequence, map[string]any{
		"name": "Sale Order", "code": "SO", "prefix": "SO", "suffix": nil,
		"padding": int64(5), "number_next": int64(1), "number_increment": int64(1), "active": true,
	})
}

func TestExport_WritesAllFilesAndManifest(t *testing.T) {
	st := newFakeStore()
	seedScenario(st)
	dir := t.TempDir()

	exp := NewExporter(st, silentLogger())
	exp.Now = fixedClock

	result, err := exp.Export(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, len(config.ExportOrder), result.ExportedConfigs)
	assert.Equal(t, 2, result.TotalRecords)
	assert.Equal(t, dir, result.OutputPath)

	for _, name := range config.ExportOrder {
		assert.True(t, yamlfile.Exists(filepath.Join(dir, name+".yml")), "missing %s.yml", name)
	}

	var manifest config.Manifest
	require.NoError(t, yamlfile.Read(filepath.Join(dir, ManifestFile), &manifest))
	assert.Equal(t, "2026-01-15T10:30:00Z", manifest.ExportDate)
	assert.Equal(t, "18.0", manifest.OdooVersion, "defaults when server.version is absent")
	assert.Equal(t, config.ExportOrder, manifest.ConfigTypes)
	assert.Equal(t, 2, manifest.TotalRecords)
	assert.NotEmpty(t, manifest.DatabaseUUID)
}

func TestExport_ConcreteScenarioFileContents(t *testing.T) {
	st := newFakeStore()
	seedScenario(st)
	dir := t.TempDir()

	exp := NewExporter(st, silentLogger())
	exp.Now = fixedClock
	_, err := exp.Export(context.Background(), dir)
	require.NoError(t, err)

	var params map[string][]config.Mapping
	require.NoError(t, yamlfile.Read(filepath.Join(dir, config.ConfigParameters+".yml"), &params))
	require.Len(t, params[config.ConfigParameters], 1)
	assert.Equal(t, config.Mapping{"key": "web.base.url", "value": "http://x"},
		params[config.ConfigParameters][0])

	var seqs map[string][]config.Mapping
	require.NoError(t, yamlfile.Read(filepath.Join(dir, config.Sequences+".yml"), &seqs))
	require.Len(t, seqs[config.Sequences], 1)
	seq := seqs[config.Sequences][0]
	assert.Equal(t, "SO", seq["code"])
	assert.Equal(t, "Sale Order", seq["name"])
	assert.EqualValues(t, 5, config.AsInt(seq["padding"]))
	assert.Equal(t, true, seq["active"])
}

func TestExport_DatabaseUUIDGeneratedOnceAndPersisted(t *testing.T) {
	st := newFakeStore()
	exp := NewExporter(st, silentLogger())
	exp.Now = fixedClock

	dir1 := t.TempDir()
	_, err := exp.Export(context.Background(), dir1)
	require.NoError(t, err)

	var m1 config.Manifest
	require.NoError(t, yamlfile.Read(filepath.Join(dir1, ManifestFile), &m1))
	require.NotEmpty(t, m1.DatabaseUUID)

	params, err := st.Find(context.Background(), tableConfigParameter, map[string]any{"key": "database.uuid"})
	require.NoError(t, err)
	require.Len(t, params, 1, "the generated uuid is stored as a parameter")
	assert.Equal(t, m1.DatabaseUUID, params[0].Str("value"))

	dir2 := t.TempDir()
	_, err = exp.Export(context.Background(), dir2)
	require.NoError(t, err)

	var m2 config.Manifest
	require.NoError(t, yamlfile.Read(filepath.Join(dir2, ManifestFile), &m2))
	assert.Equal(t, m1.DatabaseUUID, m2.DatabaseUUID, "identity is stable across exports")
}

func TestExport_UsesStoredVersionParameter(t *testing.T) {
	st := newFakeStore()
	st.seed(tableConfigParameter, map[string]any{"key": "server.version", "value": "18.2"})

	exp := NewExporter(st, silentLogger())
	exp.Now = fixedClock
	dir := t.TempDir()
	_, err := exp.Export(context.Background(), dir)
	require.NoError(t, err)

	var manifest config.Manifest
	require.NoError(t, yamlfile.Read(filepath.Join(dir, ManifestFile), &manifest))
	assert.Equal(t, "18.2", manifest.OdooVersion)
}

func TestExport_StableBytesAcrossRuns(t *testing.T) {
	st := newFakeStore()
	seedScenario(st)
	// Pre-seed identity so nothing is generated mid-test.
	st.seed(tableConfigParameter, map[string]any{"key": "database.uuid", "value": "11111111-2222-3333-4444-555555555555"})

	exp := NewExporter(st, silentLogger())
	exp.Now = fixedClock

	dir1 := t.TempDir()
	dir2 := t.TempDir()
	_, err := exp.Export(context.Background(), dir1)
	require.NoError(t, err)
	_, err = exp.Export(context.Background(), dir2)
	require.NoError(t, err)

	names := append([]string{ManifestFile}, config.ConfigParameters+".yml", config.Sequences+".yml")
	for _, name := range names {
		b1, err := os.ReadFile(filepath.Join(dir1, name))
		require.NoError(t, err)
		b2, err := os.ReadFile(filepath.Join(dir2, name))
		require.NoError(t, err)
		assert.Equal(t, b1, b2, "%s must be byte-identical across runs", name)
	}
}

func TestExportThenImport_RoundTrip(t *testing.T) {
	source := newFakeStore()
	seedScenario(source)
	dir := t.TempDir()

	exp := NewExporter(source, silentLogger())
	exp.Now = fixedClock
	_, err := exp.Export(context.Background(), dir)
	require.NoError(t, err)

	target := newFakeStore()
	result := NewImporter(target, silentLogger()).Import(context.Background(), dir, ApplyOptions{})
	require.True(t, result.Success, "import failed: %v", result.Err)

	params, err := target.Find(context.Background(), tableConfigParameter, map[string]any{"key": "web.base.url"})
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "http://x", params[0].Str("value"))

	seqs, err := target.Find(context.Background(), tableSequence, map[string]any{"code": "SO"})
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Equal(t, "Sale Order", seqs[0].Str("name"))
	assert.EqualValues(t, 1, seqs[0].Int("number_next"))
}
