package engine

import (
	"context"

	"github.com/owrapper/configsync/internal/config"
)

// normKey NFC-normalizes natural-key values. Non-string values (notably
// nil) pass through untouched so constraint checks on the target see the
// snapshot value, not a coerced empty string.
func normKey(v any) any {
	if s, ok := v.(string); ok {
		return nfc(s)
	}
	return v
}

// applyConfigParams upserts system parameters keyed by parameter key.
// Existing parameters get their value replaced; unknown keys are created.
func applyConfigParams(ctx context.Context, st Store, records []config.Mapping, opts ApplyOptions) (int, error) {
	imported := 0
	for _, m := range records {
		key := normKey(m["key"])

		existing, err := st.Find(ctx, tableConfigParameter, map[string]any{"key": key})
		if err != nil {
			return imported, &UpsertError{ConfigType: config.ConfigParameters, Key: config.AsString(key), Err: err}
		}

		if len(existing) > 0 {
			err = st.Update(ctx, tableConfigParameter, existing[0].ID, map[string]any{
				"value": m["value"],
			})
		} else {
			_, err = st.Create(ctx, tableConfigParameter, map[string]any{
				"key":   key,
				"value": m["value"],
			})
		}
		if err != nil {
			return imported, &UpsertError{ConfigType: config.ConfigParameters, Key: config.AsString(key), Err: err}
		}
		imported++
	}
	return imported, nil
}

// applySequences upserts number sequences keyed by code.
//
// The live counter (number_next) is excluded from updates so an import can
// never clash with in-flight document numbering on the target. Counter
// seeding has to be opted into explicitly (ApplyOptions.SeedCounters).
// New sequences are created with the exported counter either way.
func applySequences(ctx context.Context, st Store, records []config.Mapping, opts ApplyOptions) (int, error) {
	imported := 0
	for _, m := range records {
		code := normKey(m["code"])

		existing, err := st.Find(ctx, tableSequence, map[string]any{"code": code})
		if err != nil {
			return imported, &UpsertError{ConfigType: config.Sequences, Key: config.AsString(code), Err: err}
		}

		if len(existing) > 0 {
			fields := map[string]any{
				"name":             m["name"],
				"prefix":           m["prefix"],
				"suffix":           m["suffix"],
				"padding":          m["padding"],
				"number_increment": m["number_increment"],
				"active":           m["active"],
			}
			if opts.SeedCounters {
				fields["number_next"] = m["number_next"]
			}
			err = st.Update(ctx, tableSequence, existing[0].ID, fields)
		} else {
			_, err = st.Create(ctx, tableSequence, map[string]any{
				"name":             m["name"],
				"code":             code,
				"prefix":           m["prefix"],
				"suffix":           m["suffix"],
				"padding":          m["padding"],
				"number_next":      m["number_next"],
				"number_increment": m["number_increment"],
				"active":           m["active"],
			})
		}
		if err != nil {
			return imported, &UpsertError{ConfigType: config.Sequences, Key: config.AsString(code), Err: err}
		}
		imported++
	}
	return imported, nil
}

// applyUserGroups creates groups that are missing on the target, by name.
//
// Create-only: relational fields (category, implied groups, membership) are
// not applied. Re-importing an already-present group is a no-op and does
// not count as an imported record.
func applyUserGroups(ctx context.Context, st Store, records []config.Mapping, opts ApplyOptions) (int, error) {
	imported := 0
	for _, m := range records {
		name := normKey(m["name"])

		existing, err := st.Find(ctx, tableGroups, map[string]any{"name": name})
		if err != nil {
			return imported, &UpsertError{ConfigType: config.UserGroups, Key: config.AsString(name), Err: err}
		}
		if len(existing) > 0 {
			continue
		}

		if _, err := st.Create(ctx, tableGroups, map[string]any{"name": name}); err != nil {
			return imported, &UpsertError{ConfigType: config.UserGroups, Key: config.AsString(name), Err: err}
		}
		imported++
	}
	return imported, nil
}

// applyExternalIDs upserts external-id mappings keyed by (module, name).
func applyExternalIDs(ctx context.Context, st Store, records []config.Mapping, opts ApplyOptions) (int, error) {
	imported := 0
	for _, m := range records {
		module := normKey(m["module"])
		name := normKey(m["name"])
		key := config.AsString(module) + "." + config.AsString(name)

		fields := map[string]any{
			"module":   module,
			"name":     name,
			"model":    m["model"],
			"res_id":   m["res_id"],
			"noupdate": m["noupdate"],
		}

		existing, err := st.Find(ctx, tableModelData, map[string]any{"module": module, "name": name})
		if err != nil {
			return imported, &UpsertError{ConfigType: config.ExternalIDs, Key: key, Err: err}
		}

		if len(existing) > 0 {
			err = st.Update(ctx, tableModelData, existing[0].ID, fields)
		} else {
			_, err = st.Create(ctx, tableModelData, fields)
		}
		if err != nil {
			return imported, &UpsertError{ConfigType: config.ExternalIDs, Key: key, Err: err}
		}
		imported++
	}
	return imported, nil
}

// applyModuleStates checks module install states without writing anything.
//
// Changing install states needs dependency resolution the engine does not
// model, so the routine only reports drift between the snapshot and the
// target and counts modules the target knows about.
func applyModuleStates(ctx context.Context, st Store, records []config.Mapping, opts ApplyOptions) (int, error) {
	imported := 0
	for _, m := range records {
		name := nfc(config.AsString(m["name"]))

		existing, err := st.Find(ctx, tableModule, map[string]any{"name": name})
		if err != nil {
			return imported, &UpsertError{ConfigType: config.ModuleStates, Key: name, Err: err}
		}

		if len(existing) == 0 {
			opts.logger().Warn("module not found in target", "module", name)
			continue
		}

		current := existing[0].Str("state")
		target := config.AsString(m["state"])
		if current != target {
			opts.logger().Info("module state drift",
				"module", name, "current", current, "target", target)
		}
		imported++
	}
	return imported, nil
}
