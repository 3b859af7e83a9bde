package cli

import (
	"github.com/spf13/cobra"

	"github.com/owrapper/configsync/internal/engine"
	"github.com/owrapper/configsync/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Output   string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export system configurations to YAML files",
		Long: `Export every registered configuration collection from the database
into one YAML file per collection plus a manifest.

Example:
  configsync export -d ./prod.db -o ./config-snapshot`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "path to the database (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory path (required)")
	_ = cmd.MarkFlagRequired("database")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	log := newLogger(opts.Verbose)

	if err := engine.ValidateTarget(opts.Output); err != nil {
		_ = formatter.Error("export", err.Error(), nil)
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error("export", err.Error(), nil)
		return WrapExitError(ExitCommandError, "export failed", err)
	}
	defer st.Close()

	result, err := engine.NewExporter(st, log).Export(cmd.Context(), opts.Output)
	if err != nil {
		_ = formatter.Error("export", "Export failed: "+err.Error(), nil)
		return WrapExitError(ExitFailure, "export failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	formatter.Line("✓ Exported %d config types", result.ExportedConfigs)
	formatter.Line("✓ Total records: %d", result.TotalRecords)
	formatter.Line("✓ Output: %s", result.OutputPath)
	return nil
}
