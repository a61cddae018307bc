package cli

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/queries"
	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List ranking strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := queries.NewListStrategiesHandler()
		if app := GetApp(); app != nil && app.ListStrategiesHandler != nil {
			handler = app.ListStrategiesHandler
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  STRATEGIES")
		fmt.Fprintln(out, strings.Repeat("=", 60))
		for _, s := range handler.Handle(cmd.Context()) {
			marker := ""
			if s.Default {
				marker = " (default)"
			}
			fmt.Fprintf(out, "  %s%s\n", s.Name, marker)
			fmt.Fprintf(out, "      %s\n", s.Description)
			fmt.Fprintf(out, "      importance %.2f  urgency %.2f  quick win %.2f  dependency %.2f\n",
				s.Weights.Importance, s.Weights.Urgency, s.Weights.QuickWin, s.Weights.Dependency)
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
