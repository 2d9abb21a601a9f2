package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/quizgen"
	"github.com/abhisek/coursepath/internal/ui/components"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Inspect and generate lecture quizzes",
}

var quizGenerateCmd = &cobra.Command{
	Use:   "generate <course-id> <lecture-id>",
	Short: "Generate a quiz for a lecture with the configured LLM",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		regenerate, _ := cmd.Flags().GetBool("regenerate")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		c, err := s.CourseRepo().Get(ctx, args[0])
		if errors.Is(err, course.ErrNotFound) {
			return fmt.Errorf("course %q not found", args[0])
		}
		if err != nil {
			return err
		}

		gen, err := newQuizGenerator(ctx, cfg.LLM, s.EventRepo(), logger)
		if err != nil {
			return err
		}
		svc := quizgen.NewService(s.QuizRepo(), gen, logger)

		q, err := svc.Generate(ctx, c, args[1], regenerate)
		if errors.Is(err, quizgen.ErrGenerationDisabled) {
			return errors.New("quiz generation is disabled, configure llm.provider first")
		}
		if err != nil {
			return err
		}
		fmt.Println(components.QuizView{Quiz: q}.View())
		return nil
	},
}

var quizShowCmd = &cobra.Command{
	Use:   "show <lecture-id>",
	Short: "Show the stored quiz for a lecture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		q, err := s.QuizRepo().ByLecture(cmd.Context(), args[0])
		if errors.Is(err, course.ErrNotFound) {
			return fmt.Errorf("no quiz stored for lecture %q", args[0])
		}
		if err != nil {
			return err
		}

		answers := make([]int, len(q.Questions))
		for i, qq := range q.Questions {
			answers[i] = qq.Correct
		}
		fmt.Println(components.QuizView{Quiz: q, Answers: answers}.View())
		fmt.Printf("\nPass threshold: %d%%  Generated: %v\n", q.Threshold(), q.Generated)
		return nil
	},
}

func init() {
	quizGenerateCmd.Flags().Bool("regenerate", false, "Replace an existing quiz, avoiding its questions")

	quizCmd.AddCommand(quizGenerateCmd)
	quizCmd.AddCommand(quizShowCmd)
}
