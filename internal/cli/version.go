package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/structclone-go/application"
	"github.com/lk2023060901/structclone-go/pkg/structclone"
)

func newVersionCmd(_ *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the tool version and the supported format versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "structclone version %s\n", application.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "format versions: 0-%d\n", structclone.MaxVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
