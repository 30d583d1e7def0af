package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/hydrate/internal/intake"
)

type versionInfo struct {
	Version  string `json:"version"`
	Packaged bool   `json:"packaged"`
}

func (v versionInfo) String() string {
	if v.Packaged {
		return "hydrate " + v.Version + " (packaged)"
	}
	return "hydrate " + v.Version
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return f.Success(versionInfo{Version: intake.Version, Packaged: intake.IsPackaged()})
		},
	}
}
