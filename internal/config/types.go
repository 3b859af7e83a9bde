package config

// Collection names identify one configuration record type. They double as
// the on-disk file names (<name>.yml) and as the top-level mapping key
// inside each file.
const (
	ConfigParameters = "ir_config_parameters"
	Sequences        = "ir_sequences"
	UserGroups       = "res_groups"
	ExternalIDs      = "ir_model_data"
	ModuleStates     = "module_states"
)

// ExportOrder lists collections in registry declaration order.
var ExportOrder = []string{
	ConfigParameters,
	Sequences,
	UserGroups,
	ExternalIDs,
	ModuleStates,
}

// ImportOrder is the fixed dependency order for import.
//
// External-id mappings come last because they reference records (groups,
// sequences) that must already exist on the target. Reordering this slice
// breaks referential integrity on stores that enforce it.
var ImportOrder = []string{
	ConfigParameters,
	UserGroups,
	Sequences,
	ModuleStates,
	ExternalIDs,
}

// Record is a store-level record: an internal numeric id plus a flat
// field-name to value mapping. Internal ids are never serialized; they are
// only meaningful within one store instance.
type Record struct {
	ID     int64
	Fields map[string]any
}

// Mapping is the portable serialized form of one record: named fields with
// scalar or list-of-scalar values, no internal ids.
type Mapping = map[string]any

// Manifest describes a snapshot's contents and provenance.
// Written once per export; read-only on import.
type Manifest struct {
	ExportDate   string   `yaml:"export_date"`
	OdooVersion  string   `yaml:"odoo_version"`
	DatabaseUUID string   `yaml:"database_uuid"`
	ConfigTypes  []string `yaml:"config_types"`
	TotalRecords int      `yaml:"total_records"`
}

// ExportResult summarizes one snapshot run.
type ExportResult struct {
	ExportedConfigs int    `json:"exported_configs"`
	TotalRecords    int    `json:"total_records"`
	OutputPath      string `json:"output_path"`
}

// ApplyResult is the per-collection outcome of an import.
type ApplyResult struct {
	ConfigType      string `json:"config_type"`
	Success         bool   `json:"success"`
	ImportedRecords int    `json:"imported_records"`
	Err             error  `json:"-"`
}

// RunResult aggregates a full import run.
//
// On failure, FailedConfigType names the collection that broke and
// TotalImportedRecords counts what committed before it. Collections after
// the failed one were not attempted.
type RunResult struct {
	Success              bool          `json:"success"`
	ImportedConfigTypes  int           `json:"imported_config_types"`
	TotalImportedRecords int           `json:"total_imported_records"`
	FailedConfigType     string        `json:"failed_config_type,omitempty"`
	Results              []ApplyResult `json:"results,omitempty"`
	Err                  error         `json:"-"`
}
