// Package cli 实现 structclone 命令行工具。
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/lk2023060901/structclone-go/application"
	"github.com/lk2023060901/structclone-go/pkg/log"
)

const roleName = "structclone"

// globalFlags 由所有子命令共享。
type globalFlags struct {
	cfgFile string
	format  string
}

type rootState struct {
	flags globalFlags
	app   *application.Application
}

// intent 为一次命令执行开启带 trace 的上下文。
func (s *rootState) intent(name string) (context.Context, trace.Span) {
	return log.NewIntentContext(roleName, name)
}

// NewRootCmd 构建命令树，每次调用返回一棵独立的树。
func NewRootCmd() *cobra.Command {
	state := &rootState{}

	root := &cobra.Command{
		Use:   "structclone",
		Short: "Inspect and produce structured-clone token streams",
		Long: `structclone decodes the host-object structured-clone wire format into its
token sequence and encodes token scripts back into wire bytes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			state.app = application.New()
			if err := state.app.Run(state.flags.cfgFile); err != nil {
				return err
			}
			if state.flags.format != "" {
				state.app.Config().Dump.Format = state.flags.format
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&state.flags.cfgFile, "config", "", "config file (default is $STRUCTCLONE_CONFIG_FILE_PATH or ./config.yaml)")
	root.PersistentFlags().StringVarP(&state.flags.format, "output", "o", "", "output format: table, json, yaml (default from dump.format)")

	root.AddCommand(
		newDumpCmd(state),
		newEncodeCmd(state),
		newTagsCmd(state),
		newVersionCmd(state),
	)
	return root
}

// Execute 以 os.Args 执行命令树。
func Execute() error {
	return NewRootCmd().Execute()
}
