package main

import (
	"fmt"
	"strings"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/model"
	"github.com/spf13/cobra"
)

func newFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Explain a health state filter value",
		Long: `Show which health states a HealthStateFilter bit set selects, or
check a single state against it.

Examples:
  # Warning and Error
  fabricctl filter --value 12

  # Does Default select Ok?
  fabricctl filter --value 0 --state Ok`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, _ := cmd.Flags().GetInt64("value")
			state, _ := cmd.Flags().GetString("state")
			f := model.HealthStateFilter(value)
			out := cmd.OutOrStdout()

			if state == "" {
				states := make([]string, 0, 3)
				for _, s := range f.States() {
					states = append(states, string(s))
				}
				if len(states) == 0 {
					states = append(states, "none")
				}
				fmt.Fprintf(out, "%d: %s\n", value, strings.Join(states, ","))
				return nil
			}

			s := model.HealthState(state)
			if !s.IsValid() {
				return apierror.NewCode(fmt.Sprintf("unknown health state %q", state), apierror.CodeInvalidArgument, false)
			}
			if f.Matches(s) {
				fmt.Fprintf(out, "%d selects %s\n", value, s)
			} else {
				fmt.Fprintf(out, "%d does not select %s\n", value, s)
			}
			return nil
		},
	}
	cmd.Flags().Int64("value", 0, "Filter value")
	cmd.Flags().String("state", "", "Health state to test against the filter")
	return cmd
}
