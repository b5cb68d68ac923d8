package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdpower/ctxgw-report/internal/output"
)

func NewReportCommand() *cobra.Command {
	var (
		flags  reportFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "report [telemetry.jsonl | container]",
		Short: "Report compression savings of the context gateway",
		Long: `Analyze the gateway's request and compression logs and report token and
money savings, output size distribution, daily usage and the compression
threshold with the best return.

The logs are read from a local telemetry.jsonl (with compression.jsonl next
to it), from the named container, or from the running compose service.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.ValidateFormat(format); err != nil {
				return err
			}

			cfg, err := flags.setup()
			if err != nil {
				return err
			}

			report, err := pipeline{cfg: cfg, arg: sourceArg(args)}.run(cmd.Context())
			if err != nil {
				return err
			}

			formatter := output.NewFormatter(output.FormatterOptions{
				Format:  format,
				NoColor: flags.colorDisabled(),
			})
			out, err := formatter.FormatReport(report)
			if err != nil {
				return fmt.Errorf("failed to format report: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatTable, "Output format (table, json)")

	return cmd
}
