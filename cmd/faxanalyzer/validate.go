package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Imdraks/faxcloud-analyzer/internal/dataprocessing"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate NUMBER...",
		Short: "Normalize and validate called numbers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var classifier dataprocessing.PhoneLineClassifier

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NUMBER\tNORMALIZED\tVALID\tDETAIL")
			for _, raw := range args {
				normalized := dataprocessing.Normalize(raw)
				outcome := dataprocessing.Validate(raw, normalized)

				detail := classifier.Classify(normalized)
				if !outcome.IsValid {
					reasons := make([]string, len(outcome.Reasons))
					for i, r := range outcome.Reasons {
						reasons[i] = string(r)
					}
					detail = strings.Join(reasons, "|")
				}
				fmt.Fprintf(tw, "%q\t%s\t%t\t%s\n", raw, normalized, outcome.IsValid, detail)
			}
			return tw.Flush()
		},
	}
}
