package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursepath/internal/course"
	"github.com/abhisek/coursepath/internal/progress"
	"github.com/abhisek/coursepath/internal/ui/components"
	"github.com/abhisek/coursepath/internal/ui/theme"
)

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Manage course definitions",
}

var courseImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import courses and their quizzes from YAML or JSON files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		for _, path := range args {
			b, err := course.LoadFile(path)
			if err != nil {
				return err
			}
			if err := s.CourseRepo().Save(ctx, &b.Course); err != nil {
				return fmt.Errorf("save course %s: %w", b.Course.ID, err)
			}
			for i := range b.Quizzes {
				if err := s.QuizRepo().Save(ctx, &b.Quizzes[i]); err != nil {
					return fmt.Errorf("save quiz %s: %w", b.Quizzes[i].ID, err)
				}
			}
			fmt.Printf("Imported %s (%s): %d lectures, %d quizzes\n",
				b.Course.ID, b.Course.Version, len(b.Course.Lectures), len(b.Quizzes))
		}
		return nil
	},
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		courses, err := s.CourseRepo().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list courses: %w", err)
		}
		if len(courses) == 0 {
			fmt.Println("No courses imported yet.")
			return nil
		}

		fmt.Printf("%-20s  %-10s  %8s  %s\n", "ID", "Version", "Lectures", "Title")
		fmt.Println(rule(72))
		for _, c := range courses {
			fmt.Printf("%-20s  %-10s  %8d  %s\n", truncate(c.ID, 20), c.Version, len(c.Lectures), c.Title)
		}
		return nil
	},
}

var courseShowCmd = &cobra.Command{
	Use:   "show <course-id>",
	Short: "Show a course outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.CourseRepo().Get(cmd.Context(), args[0])
		if errors.Is(err, course.ErrNotFound) {
			return fmt.Errorf("course %q not found", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Println(theme.Title.Render(c.Title) + theme.Hint.Render("  "+c.Version))
		rec := progress.Record{CourseID: c.ID}
		fmt.Println(components.LectureList{Course: c, Record: rec, Selected: -1}.View())
		return nil
	},
}

func init() {
	courseCmd.AddCommand(courseImportCmd)
	courseCmd.AddCommand(courseListCmd)
	courseCmd.AddCommand(courseShowCmd)
}
