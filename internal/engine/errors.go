package engine

import (
	"errors"
	"fmt"

	"github.com/owrapper/configsync/internal/yamlfile"
)

// ErrManifestMissing reports that the snapshot directory has no manifest.
// Manifest presence is a precondition for import; nothing is processed
// without one.
var ErrManifestMissing = errors.New("manifest.yml not found")

// UpsertError reports that the store rejected a create or update while
// applying one collection. It aborts the remaining records of that
// collection and every collection after it.
type UpsertError struct {
	ConfigType string // collection being applied
	Key        string // natural key of the failing record
	Err        error
}

func (e *UpsertError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: upsert %q: %v", e.ConfigType, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: upsert: %v", e.ConfigType, e.Err)
}

func (e *UpsertError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is the serialization adapter's
// missing-file error. Uses errors.Is to handle wrapped errors.
func IsNotFound(err error) bool {
	return errors.Is(err, yamlfile.ErrNotFound)
}

// IsParseError reports whether err is a malformed-file error.
func IsParseError(err error) bool {
	var pe *yamlfile.ParseError
	return errors.As(err, &pe)
}
