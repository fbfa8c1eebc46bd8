package cli

import (
	"fmt"
	"runtime"

	"github.com/alekostrader/alkadmin/internal/licensectl/app"
	"github.com/spf13/cobra"
)

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Display the binary version",
		Long:        `Print the version and build details of the licensectl executable.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "licensectl %s (commit %s, built %s, %s)\n",
				app.BuildVersion, app.BuildCommit, app.BuildDate, runtime.Version())
		},
	}
}
