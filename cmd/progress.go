package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/store"
	"github.com/abhisek/coursepath/internal/ui/components"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect stored learner progress",
}

var progressShowCmd = &cobra.Command{
	Use:   "show <learner-id> [course-id]",
	Short: "Show a learner's progress across courses",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		repo, closeRepo, err := openProgressRepo(cmd, cfg, s)
		if err != nil {
			return err
		}
		defer closeRepo()

		ctx := cmd.Context()
		var records []store.Progress
		if len(args) == 2 {
			p, err := repo.Get(ctx, args[0], args[1])
			if errors.Is(err, course.ErrNotFound) {
				return fmt.Errorf("no progress for %s in %s", args[0], args[1])
			}
			if err != nil {
				return err
			}
			records = append(records, *p)
		} else if records, err = repo.ListByLearner(ctx, args[0]); err != nil {
			return fmt.Errorf("list progress: %w", err)
		}

		if len(records) == 0 {
			fmt.Printf("No progress recorded for %s.\n", args[0])
			return nil
		}
		for _, p := range records {
			fmt.Println(components.NewProgressBar(truncate(p.CourseID, 20), p.Percent, 60).View())
			fmt.Printf("  %d lectures, %d quizzes, updated %s\n",
				len(p.CompletedLectureIDs), len(p.CompletedQuizIDs),
				p.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var progressHistoryCmd = &cobra.Command{
	Use:   "history <learner-id> <course-id>",
	Short: "Show recent progress pushes for a course",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		snaps, err := s.SnapshotRepo().History(cmd.Context(), args[0], args[1], limit)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		if len(snaps) == 0 {
			fmt.Println("No pushes recorded.")
			return nil
		}

		fmt.Printf("%-6s  %-19s  %7s  %8s  %7s\n", "Seq", "Timestamp", "Percent", "Lectures", "Quizzes")
		fmt.Println(rule(56))
		for _, sn := range snaps {
			fmt.Printf("%-6d  %-19s  %6d%%  %8d  %7d\n",
				sn.Sequence,
				sn.Timestamp.Local().Format("2006-01-02 15:04:05"),
				sn.Progress.Percent,
				len(sn.Progress.CompletedLectureIDs),
				len(sn.Progress.CompletedQuizIDs))
		}
		return nil
	},
}

var progressAttemptsCmd = &cobra.Command{
	Use:   "attempts <learner-id>",
	Short: "List a learner's quiz attempts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		attempts, err := s.AttemptRepo().ListByLearner(cmd.Context(), args[0], store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}
		if len(attempts) == 0 {
			fmt.Println("No quiz attempts recorded.")
			return nil
		}

		fmt.Printf("%-19s  %-16s  %-16s  %5s  %s\n", "Timestamp", "Course", "Quiz", "Score", "Passed")
		fmt.Println(rule(72))
		for _, a := range attempts {
			passed := "✗"
			if a.Passed {
				passed = "✓"
			}
			fmt.Printf("%-19s  %-16s  %-16s  %4d%%  %s\n",
				a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(a.CourseID, 16), truncate(a.QuizID, 16), a.Score, passed)
		}
		return nil
	},
}

func init() {
	progressHistoryCmd.Flags().IntP("limit", "n", 20, "Number of pushes to show")
	progressAttemptsCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressHistoryCmd)
	progressCmd.AddCommand(progressAttemptsCmd)
}
