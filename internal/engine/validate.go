package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/owrapper/configsync/internal/config"
	"github.com/owrapper/configsync/internal/yamlfile"
)

// ValidationResult is the outcome of a source-directory check.
type ValidationResult struct {
	Valid           bool     `json:"valid"`
	Message         string   `json:"message"`
	MissingOptional []string `json:"missing_optional,omitempty"`
}

// ValidateSource checks a snapshot directory without touching the store:
// the manifest must exist and parse, and every collection file that is
// present must parse. Absent collection files are reported informationally;
// the applier treats them as empty.
func ValidateSource(sourcePath string) *ValidationResult {
	var manifest config.Manifest
	if err := yamlfile.Read(filepath.Join(sourcePath, ManifestFile), &manifest); err != nil {
		if IsNotFound(err) {
			return &ValidationResult{
				Valid:   false,
				Message: "Required files missing: " + ManifestFile,
			}
		}
		return &ValidationResult{Valid: false, Message: err.Error()}
	}

	var missing []string
	for _, name := range config.ExportOrder {
		path := filepath.Join(sourcePath, name+".yml")

		var doc map[string][]config.Mapping
		if err := yamlfile.Read(path, &doc); err != nil {
			if IsNotFound(err) {
				missing = append(missing, name+".yml")
				continue
			}
			return &ValidationResult{Valid: false, Message: err.Error()}
		}
	}

	return &ValidationResult{
		Valid:           true,
		Message:         "Import path is valid",
		MissingOptional: missing,
	}
}

// ValidateTarget checks that an export directory exists (creating it if
// needed) and is writable, by writing and removing a probe file.
func ValidateTarget(outputPath string) error {
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return fmt.Errorf("export path %s: %w", outputPath, err)
	}

	probe := filepath.Join(outputPath, ".write_probe")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return fmt.Errorf("export path %s not writable: %w", outputPath, err)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("export path %s: %w", outputPath, err)
	}
	return nil
}

// MissingOptionalSummary formats the missing-optional list for display.
func (r *ValidationResult) MissingOptionalSummary() string {
	return strings.Join(r.MissingOptional, ", ")
}
