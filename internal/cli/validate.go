package cli

import (
	"github.com/spf13/cobra"

	"github.com/owrapper/configsync/internal/engine"
	"github.com/owrapper/configsync/internal/store"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Database string
	Source   string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files without importing",
		Long: `Check that a snapshot directory is importable: the manifest must be
present and every collection file that exists must parse. Nothing is
written to the database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "path to the database (required)")
	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "source directory path (required)")
	_ = cmd.MarkFlagRequired("database")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// The database must at least be reachable, even though validation only
	// inspects files.
	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error("validate", err.Error(), nil)
		return WrapExitError(ExitCommandError, "validation failed", err)
	}
	defer st.Close()

	return reportValidation(formatter, engine.ValidateSource(opts.Source))
}
