package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdpower/ctxgw-report/internal/types"
	"github.com/sdpower/ctxgw-report/internal/viewer"
)

func NewViewCommand() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "view [telemetry.jsonl | container]",
		Short: "Browse the report in an interactive terminal view",
		Long:  `Show the gateway report with one tab per section. Press 'r' to re-read the logs.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.setup()
			if err != nil {
				return err
			}

			p := pipeline{cfg: cfg, arg: sourceArg(args)}
			v := viewer.New(viewer.Options{
				Load:    func(ctx context.Context) (types.Report, error) { return p.run(ctx) },
				NoColor: flags.noColor,
			})

			if err := v.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start viewer: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
