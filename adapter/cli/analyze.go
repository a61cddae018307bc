package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	internalApp "github.com/felixgeelhaar/taskrank/internal/app"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/domain"
	"github.com/felixgeelhaar/taskrank/pkg/config"
	"github.com/spf13/cobra"
)

var (
	analyzeStrategy string
	analyzeTop      int
	analyzeToday    string
	analyzeJSON     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Rank tasks from a JSON file",
	Long: `Rank a batch of tasks offline.

The input is either a JSON array of tasks or an object of the form
{"tasks": [...], "strategy": "..."}. Without a file, or with "-",
the batch is read from standard input.

Examples:
  taskrank analyze tasks.json
  taskrank analyze tasks.json --strategy deadline_driven --top 3
  cat tasks.json | taskrank analyze --json --today 2025-06-15`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		payloads, strategy, err := decodeBatch(data)
		if err != nil {
			return err
		}
		if analyzeStrategy != "" {
			strategy = analyzeStrategy
		}

		var today time.Time
		if analyzeToday != "" {
			today, err = time.Parse(domain.DateLayout, analyzeToday)
			if err != nil {
				return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
			}
		}

		app := GetApp()
		if app == nil {
			app = NewApp(internalApp.NewLocalContainer(config.Default(), logger))
		}

		result, err := app.AnalyzeTasksHandler.Handle(cmd.Context(), commands.AnalyzeTasksCommand{
			Tasks:    payloads,
			Strategy: strategy,
			Today:    today,
		})
		if err != nil {
			return describeError(err)
		}

		ranked := result.Ranked
		if analyzeTop > 0 && analyzeTop < len(ranked) {
			ranked = ranked[:analyzeTop]
		}

		out := cmd.OutOrStdout()
		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(ranked)
		}

		printRanking(out, result, ranked)
		return nil
	},
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}
	return data, nil
}

// decodeBatch accepts a bare task array or a request object.
func decodeBatch(data []byte) ([]domain.TaskPayload, string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		payloads, err := domain.DecodeTaskList(data)
		return payloads, "", err
	}

	var body struct {
		Tasks    json.RawMessage `json:"tasks"`
		Strategy string          `json:"strategy"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if body.Tasks == nil {
		return nil, body.Strategy, nil
	}
	payloads, err := domain.DecodeTaskList(body.Tasks)
	return payloads, body.Strategy, err
}

// describeError spells out which task and fields failed validation.
func describeError(err error) error {
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		return err
	}
	lines := make([]string, 0, len(validation.Fields))
	for _, field := range validation.Fields.Fields() {
		lines = append(lines, fmt.Sprintf("  %s: %s", field, validation.Fields[field]))
	}
	return fmt.Errorf("task %d is invalid:\n%s", validation.Index, strings.Join(lines, "\n"))
}

func printRanking(out io.Writer, result *commands.AnalyzeTasksResult, ranked []domain.ScoredTask) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  RANKING: %s (evaluated %s)\n", result.Strategy, result.EvaluatedOn)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	if len(ranked) == 0 {
		fmt.Fprintln(out, "  No tasks.")
		fmt.Fprintln(out)
		return
	}

	for i, task := range ranked {
		due := ""
		if task.DueDate != "" {
			due = "  due " + task.DueDate
		}
		fmt.Fprintf(out, "  %2d. %.4f  %s  %s%s\n", i+1, task.Score, task.ID, task.DisplayTitle(), due)
		fmt.Fprintf(out, "      %s\n", task.Explanation)
	}

	if len(result.CycleIDs) > 0 {
		fmt.Fprintln(out, strings.Repeat("-", 60))
		fmt.Fprintf(out, "  Circular dependencies: %s\n", strings.Join(result.CycleIDs, ", "))
	}
	fmt.Fprintln(out)
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeStrategy, "strategy", "s", "", "ranking strategy (default smart_balance)")
	analyzeCmd.Flags().IntVarP(&analyzeTop, "top", "n", 0, "show only the N best tasks")
	analyzeCmd.Flags().StringVar(&analyzeToday, "today", "", "evaluation date (YYYY-MM-DD), defaults to today")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the ranking as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
