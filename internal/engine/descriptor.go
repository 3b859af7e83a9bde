package engine

import (
	"context"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/owrapper/configsync/internal/config"
)

// Store is the record store the engine reconciles against.
// Filters are conjunctions of equality predicates on named fields.
// Implemented by *store.Store; tests substitute an in-memory fake.
type Store interface {
	Find(ctx context.Context, collection string, filter map[string]any) ([]config.Record, error)
	Create(ctx context.Context, collection string, fields map[string]any) (config.Record, error)
	Update(ctx context.Context, collection string, id int64, fields map[string]any) error

	// InTransaction runs fn inside one store transaction. The applier wraps
	// each collection's writes so a failed collection never half-commits.
	InTransaction(ctx context.Context, fn func() error) error
}

// Store-level table names. Collection names (config package) are the
// portable file-level names; these are where the records actually live.
const (
	tableConfigParameter = "ir_config_parameter"
	tableSequence        = "ir_sequence"
	tableGroups          = "res_groups"
	tableGroupCategory   = "ir_module_category"
	tableUsers           = "res_users"
	tableGroupUsersRel   = "res_groups_users_rel"
	tableGroupImpliedRel = "res_groups_implied_rel"
	tableModule          = "ir_module_module"
	tableModelData       = "ir_model_data"
)

// ApplyOptions carries per-run import switches.
type ApplyOptions struct {
	// SeedCounters updates the live sequence counter (number_next) on
	// existing sequences. Off by default: counters are never overwritten so
	// imports cannot clash with in-flight document numbering. Enable only
	// when provisioning a fresh target.
	SeedCounters bool

	// Log receives drift and skip diagnostics. Defaults to slog.Default.
	Log *slog.Logger
}

func (o ApplyOptions) logger() *slog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return slog.Default()
}

// Descriptor binds a collection name to its natural key, export projection
// and apply routine.
//
// The table below is the engine's single extensibility point: adding a
// collection means adding a row. Declaration order is the export order;
// import follows config.ImportOrder instead.
type Descriptor struct {
	// Name is the collection name, also the file name (<Name>.yml) and the
	// top-level mapping key inside the file.
	Name string

	// NaturalKey lists the fields that identify a record across store
	// instances, independent of internal ids.
	NaturalKey []string

	// Export fetches the collection from the store and projects every
	// record to its portable mapping.
	Export func(ctx context.Context, st Store) ([]config.Mapping, error)

	// Apply upserts the given mappings into the store, returning the number
	// of records processed before the first failure.
	Apply func(ctx context.Context, st Store, records []config.Mapping, opts ApplyOptions) (int, error)
}

// registry declares every supported collection. Order matches
// config.ExportOrder.
var registry = []Descriptor{
	{
		Name:       config.ConfigParameters,
		NaturalKey: []string{"key"},
		Export:     exportConfigParams,
		Apply:      applyConfigParams,
	},
	{
		Name:       config.Sequences,
		NaturalKey: []string{"code"},
		Export:     exportSequences,
		Apply:      applySequences,
	},
	{
		Name:       config.UserGroups,
		NaturalKey: []string{"name"},
		Export:     exportUserGroups,
		Apply:      applyUserGroups,
	},
	{
		Name:       config.ExternalIDs,
		NaturalKey: []string{"module", "name"},
		Export:     exportExternalIDs,
		Apply:      applyExternalIDs,
	},
	{
		Name:       config.ModuleStates,
		NaturalKey: []string{"name"},
		Export:     exportModuleStates,
		Apply:      applyModuleStates,
	},
}

// Descriptors returns the collection registry in declaration order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// descriptorFor looks up a collection by name.
func descriptorFor(name string) (Descriptor, bool) {
	for _, d := range registry {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// nfc normalizes a natural-key string to NFC so keys exported from one
// instance match the same key on another regardless of Unicode
// representation.
func nfc(s string) string {
	return norm.NFC.String(s)
}
