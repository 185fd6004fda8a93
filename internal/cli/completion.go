package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bubbletasks/backend"
)

// TaskCompletion completes the first argument with task positions, described
// by their text. load is only called when the shell asks for completions.
func TaskCompletion(load func() []backend.Task, includeCompleted bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var completions []string
		for _, row := range Rows(load(), includeCompleted) {
			num := strconv.Itoa(row.Number)
			if strings.HasPrefix(num, toComplete) {
				completions = append(completions, num+"\t"+row.Text)
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}
