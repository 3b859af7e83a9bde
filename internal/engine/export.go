package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/owrapper/configsync/internal/config"
	"github.com/owrapper/configsync/internal/yamlfile"
)

// ManifestFile is the snapshot metadata file name.
const ManifestFile = "manifest.yml"

// defaultVersion is reported in the manifest when the store carries no
// server.version parameter.
const defaultVersion = "18.0"

// Exporter snapshots every registered collection to per-collection YAML
// files plus a manifest.
type Exporter struct {
	store Store
	log   *slog.Logger

	// Now supplies the manifest timestamp. Overridable in tests.
	Now func() time.Time
}

// NewExporter creates an Exporter against the given store.
func NewExporter(st Store, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{store: st, log: log, Now: time.Now}
}

// Export snapshots all collections into outputPath.
//
// All collections are read and projected before anything is written, and
// the manifest is written last: a manifest that names files which were
// never written would break the applier's missing-file tolerance.
func (e *Exporter) Export(ctx context.Context, outputPath string) (*config.ExportResult, error) {
	snapshots := make(map[string][]config.Mapping, len(registry))
	total := 0

	for _, desc := range Descriptors() {
		records, err := desc.Export(ctx, e.store)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", desc.Name, err)
		}
		e.log.Info("exported collection", "config_type", desc.Name, "records", len(records))
		snapshots[desc.Name] = records
		total += len(records)
	}

	for _, name := range config.ExportOrder {
		path := filepath.Join(outputPath, name+".yml")
		if err := yamlfile.Write(path, map[string][]config.Mapping{name: snapshots[name]}); err != nil {
			return nil, fmt.Errorf("export %s: %w", name, err)
		}
	}

	manifest, err := e.buildManifest(ctx, total)
	if err != nil {
		return nil, err
	}
	if err := yamlfile.Write(filepath.Join(outputPath, ManifestFile), manifest); err != nil {
		return nil, fmt.Errorf("export manifest: %w", err)
	}

	e.log.Info("export complete", "config_types", len(registry), "total_records", total)

	return &config.ExportResult{
		ExportedConfigs: len(registry),
		TotalRecords:    total,
		OutputPath:      outputPath,
	}, nil
}

func (e *Exporter) buildManifest(ctx context.Context, total int) (*config.Manifest, error) {
	dbUUID, err := e.ensureDatabaseUUID(ctx)
	if err != nil {
		return nil, fmt.Errorf("export manifest: %w", err)
	}

	version, err := e.paramValue(ctx, "server.version")
	if err != nil {
		return nil, fmt.Errorf("export manifest: %w", err)
	}
	if version == "" {
		version = defaultVersion
	}

	return &config.Manifest{
		ExportDate:   e.Now().Format(time.RFC3339),
		OdooVersion:  version,
		DatabaseUUID: dbUUID,
		ConfigTypes:  config.ExportOrder,
		TotalRecords: total,
	}, nil
}

// ensureDatabaseUUID returns the store's identity parameter, generating and
// persisting one on first export.
func (e *Exporter) ensureDatabaseUUID(ctx context.Context) (string, error) {
	existing, err := e.paramValue(ctx, "database.uuid")
	if err != nil || existing != "" {
		return existing, err
	}

	dbUUID := uuid.NewString()
	if _, err := e.store.Create(ctx, tableConfigParameter, map[string]any{
		"key":   "database.uuid",
		"value": dbUUID,
	}); err != nil {
		return "", err
	}
	e.log.Info("generated database uuid", "uuid", dbUUID)
	return dbUUID, nil
}

func (e *Exporter) paramValue(ctx context.Context, key string) (string, error) {
	params, err := e.store.Find(ctx, tableConfigParameter, map[string]any{"key": key})
	if err != nil {
		return "", err
	}
	if len(params) == 0 {
		return "", nil
	}
	return params[0].Str("value"), nil
}
