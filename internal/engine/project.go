package engine

import (
	"context"
	"fmt"

	"github.com/owrapper/configsync/internal/config"
)

// exportConfigParams projects system parameters to {key, value}.
func exportConfigParams(ctx context.Context, st Store) ([]config.Mapping, error) {
	records, err := st.Find(ctx, tableConfigParameter, nil)
	if err != nil {
		return nil, err
	}

	out := make([]config.Mapping, 0, len(records))
	for _, rec := range records {
		out = append(out, config.Mapping{
			"key":   rec.Fields["key"],
			"value": rec.Fields["value"],
		})
	}
	return out, nil
}

// exportSequences projects number sequences with their full field list,
// including the live counter. The counter is exported for provenance but is
// not applied on import unless counter seeding is enabled.
func exportSequences(ctx context.Context, st Store) ([]config.Mapping, error) {
	records, err := st.Find(ctx, tableSequence, nil)
	if err != nil {
		return nil, err
	}

	out := make([]config.Mapping, 0, len(records))
	for _, rec := range records {
		out = append(out, config.Mapping{
			"name":             rec.Fields["name"],
			"code":             rec.Fields["code"],
			"prefix":           rec.Fields["prefix"],
			"suffix":           rec.Fields["suffix"],
			"padding":          rec.Fields["padding"],
			"number_next":      rec.Fields["number_next"],
			"number_increment": rec.Fields["number_increment"],
			"active":           rec.Fields["active"],
		})
	}
	return out, nil
}

// exportUserGroups projects groups with their relations mapped to portable
// identifiers: category by complete name, implied groups by external id,
// members by login. Internal ids never leave the store.
func exportUserGroups(ctx context.Context, st Store) ([]config.Mapping, error) {
	groups, err := st.Find(ctx, tableGroups, nil)
	if err != nil {
		return nil, err
	}

	out := make([]config.Mapping, 0, len(groups))
	for _, group := range groups {
		m := config.Mapping{
			"name":        group.Fields["name"],
			"category_id": nil,
			"implied_ids": []any{},
			"users":       []any{},
		}

		if catID := group.Fields["category_id"]; catID != nil {
			cats, err := st.Find(ctx, tableGroupCategory, map[string]any{"id": catID})
			if err != nil {
				return nil, err
			}
			if len(cats) > 0 {
				m["category_id"] = cats[0].Fields["complete_name"]
			}
		}

		implied, err := impliedExternalIDs(ctx, st, group.ID)
		if err != nil {
			return nil, err
		}
		m["implied_ids"] = implied

		logins, err := memberLogins(ctx, st, group.ID)
		if err != nil {
			return nil, err
		}
		m["users"] = logins

		out = append(out, m)
	}
	return out, nil
}

// impliedExternalIDs resolves a group's implied groups to module.name
// external ids. Implied groups without an external id are omitted; an
// internal id is never emitted in their place.
func impliedExternalIDs(ctx context.Context, st Store, groupID int64) ([]any, error) {
	rels, err := st.Find(ctx, tableGroupImpliedRel, map[string]any{"group_id": groupID})
	if err != nil {
		return nil, err
	}

	ids := []any{}
	for _, rel := range rels {
		xid, err := externalIDFor(ctx, st, "res.groups", rel.Int("implied_id"))
		if err != nil {
			return nil, err
		}
		if xid != "" {
			ids = append(ids, xid)
		}
	}
	return ids, nil
}

// memberLogins resolves a group's members to their logins.
func memberLogins(ctx context.Context, st Store, groupID int64) ([]any, error) {
	rels, err := st.Find(ctx, tableGroupUsersRel, map[string]any{"group_id": groupID})
	if err != nil {
		return nil, err
	}

	logins := []any{}
	for _, rel := range rels {
		users, err := st.Find(ctx, tableUsers, map[string]any{"id": rel.Fields["user_id"]})
		if err != nil {
			return nil, err
		}
		if len(users) > 0 {
			logins = append(logins, users[0].Fields["login"])
		}
	}
	return logins, nil
}

// externalIDFor returns the module.name external id of a record, or "" when
// the record has none.
func externalIDFor(ctx context.Context, st Store, model string, resID int64) (string, error) {
	refs, err := st.Find(ctx, tableModelData, map[string]any{"model": model, "res_id": resID})
	if err != nil {
		return "", err
	}
	if len(refs) == 0 {
		return "", nil
	}
	return fmt.Sprintf("%s.%s", refs[0].Str("module"), refs[0].Str("name")), nil
}

// exportExternalIDs projects external-id mappings as-is. res_id is the
// target's internal id; it is meaningful only together with the rest of the
// mapping on the same instance, and the import upserts it verbatim.
func exportExternalIDs(ctx context.Context, st Store) ([]config.Mapping, error) {
	records, err := st.Find(ctx, tableModelData, nil)
	if err != nil {
		return nil, err
	}

	out := make([]config.Mapping, 0, len(records))
	for _, rec := range records {
		out = append(out, config.Mapping{
			"module":   rec.Fields["module"],
			"name":     rec.Fields["name"],
			"model":    rec.Fields["model"],
			"res_id":   rec.Fields["res_id"],
			"noupdate": rec.Fields["noupdate"],
		})
	}
	return out, nil
}

// moduleExportStates are the only install states worth carrying to another
// instance.
var moduleExportStates = map[string]bool{
	"installed":  true,
	"to_install": true,
	"to_upgrade": true,
}

// exportModuleStates projects module install states, filtered to modules
// that are installed or queued for install/upgrade.
func exportModuleStates(ctx context.Context, st Store) ([]config.Mapping, error) {
	records, err := st.Find(ctx, tableModule, nil)
	if err != nil {
		return nil, err
	}

	out := []config.Mapping{}
	for _, rec := range records {
		if !moduleExportStates[rec.Str("state")] {
			continue
		}
		out = append(out, config.Mapping{
			"name":         rec.Fields["name"],
			"state":        rec.Fields["state"],
			"auto_install": rec.Fields["auto_install"],
			"sequence":     rec.Fields["sequence"],
		})
	}
	return out, nil
}
