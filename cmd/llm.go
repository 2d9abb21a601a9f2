package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursepath/internal/llm"
	"github.com/abhisek/coursepath/internal/store"
	"github.com/abhisek/coursepath/internal/ui/theme"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect quiz-generation LLM calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failed, _ := cmd.Flags().GetBool("failed")
		since, _ := cmd.Flags().GetDuration("since")

		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{Limit: limit}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		filtering := purpose != "" || failed
		if filtering {
			opts.Limit = 0
		}
		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if filtering {
			events = filterEvents(events, purpose, failed, limit)
		}

		if len(events) == 0 {
			fmt.Println("No LLM calls recorded.")
			return nil
		}
		printEventTable(events)
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full prompt and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}
		printEvent(e)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		byPurpose, err := s.EventRepo().LLMUsageByPurpose(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}
		byModel, err := s.EventRepo().LLMUsageByModel(cmd.Context())
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		printPurposeUsage(byPurpose)
		if len(byModel) > 0 {
			fmt.Println()
			printModelCost(byModel)
		}
		return nil
	},
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show calls with this purpose (e.g. "+llm.PurposeQuizGen+")")
	llmListCmd.Flags().Bool("failed", false, "Only show failed calls")
	llmListCmd.Flags().Duration("since", 0, "Only show calls newer than this (e.g. 24h)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}

func filterEvents(events []store.LLMEvent, purpose string, failedOnly bool, limit int) []store.LLMEvent {
	var out []store.LLMEvent
	for _, e := range events {
		if purpose != "" && e.Purpose != purpose {
			continue
		}
		if failedOnly && e.Success {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func printEventTable(events []store.LLMEvent) {
	fmt.Printf("%-5s  %-19s  %-10s  %-28s  %6s  %6s  %7s  %9s  %s\n",
		"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "Cost", "OK")
	fmt.Println(rule(104))

	for _, e := range events {
		ok := "✓"
		if !e.Success {
			ok = "✗"
		}
		cost := "?"
		if c := llm.LookupCost(e.Model); c != nil {
			cost = formatCost(c.Cost(e.InputTokens, e.OutputTokens))
		}
		fmt.Printf("%-5d  %-19s  %-10s  %-28s  %6d  %6d  %7d  %9s  %s\n",
			e.ID,
			e.Timestamp.Local().Format(timeLayout),
			truncate(e.Purpose, 10),
			truncate(e.Model, 28),
			e.InputTokens,
			e.OutputTokens,
			e.LatencyMs,
			cost,
			ok,
		)
	}
}

func printEvent(e *store.LLMEvent) {
	status := theme.Correct.Render("ok")
	if !e.Success {
		status = theme.Incorrect.Render("failed")
	}

	fmt.Println(theme.Title.Render(fmt.Sprintf("LLM call #%d", e.ID)) + "  " + status)
	fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format(timeLayout))
	fmt.Printf("Model:     %s (%s)\n", e.Model, e.Provider)
	fmt.Printf("Purpose:   %s\n", e.Purpose)
	fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
	fmt.Printf("Latency:   %dms\n", e.LatencyMs)
	if e.ErrorMessage != "" {
		fmt.Printf("Error:     %s\n", e.ErrorMessage)
	}

	printSection("Prompt", e.RequestBody)
	printSection("Response", e.ResponseBody)
}

func printSection(name, body string) {
	fmt.Println()
	fmt.Println(theme.Title.Render(name))
	fmt.Println(rule(60))
	if body == "" {
		fmt.Println(theme.Hint.Render("(not captured)"))
		return
	}
	fmt.Println(body)
}

func printPurposeUsage(stats []store.PurposeUsage) {
	fmt.Println(theme.Title.Render("Usage by purpose"))
	fmt.Printf("%-16s  %6s  %10s  %10s  %10s  %8s\n",
		"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
	fmt.Println(rule(72))

	var calls, in, out int
	for _, st := range stats {
		fmt.Printf("%-16s  %6d  %10d  %10d  %10d  %8d\n",
			truncate(st.Purpose, 16), st.Calls, st.InputTokens, st.OutputTokens,
			st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
		calls += st.Calls
		in += st.InputTokens
		out += st.OutputTokens
	}
	fmt.Println(rule(72))
	fmt.Printf("%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, out, in+out)
}

func printModelCost(usage []store.ModelUsage) {
	fmt.Println(theme.Title.Render("Estimated cost (USD)"))
	fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
	fmt.Println(rule(72))

	var total float64
	var unpriced []string
	for _, mu := range usage {
		price := llm.LookupCost(mu.Model)
		cost := "?"
		if price != nil {
			c := price.Cost(mu.InputTokens, mu.OutputTokens)
			total += c
			cost = formatCost(c)
		} else {
			unpriced = append(unpriced, mu.Model)
		}
		fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n",
			truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, cost)
	}
	fmt.Println(rule(72))

	label := "TOTAL"
	if len(unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Println(theme.Hint.Render("No pricing for: " + strings.Join(unpriced, ", ")))
	}
}

// openStoreFromFlags opens the database named by config and --db.
func openStoreFromFlags(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}

func rule(n int) string {
	return strings.Repeat("─", n)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
