package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BlueBrain/ArchNGV-sub001/pkg/buildinfo"
)

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := buildinfo.Get()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", appName, info.Version)
			fmt.Fprintf(out, "commit: %s\nbuilt: %s\ngo: %s\n", info.Commit, info.Date, info.GoVersion)
		},
	}
}
