package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/failed-job-deactivator/pkg/output"
	"github.com/telekom/failed-job-deactivator/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show deactivator version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()

			// Get runtime if available (for custom writer), but don't fail if missing
			rt, _ := getRuntime(cmd)
			writer := cmd.OutOrStdout()
			if rt != nil {
				writer = rt.Writer()
				if outputFormat == "" {
					outputFormat = rt.outputFormat
				}
			}

			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				_, _ = fmt.Fprintln(writer, info.String())
				return nil
			}
			return output.WriteObject(writer, format, info)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, yaml")

	return cmd
}
