package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/coursepath/internal/cache"
	"github.com/abhisek/coursepath/internal/courseview"
	"github.com/abhisek/coursepath/internal/quizgate"
	"github.com/abhisek/coursepath/internal/remote"
	"github.com/abhisek/coursepath/internal/ui/components"
	"github.com/abhisek/coursepath/internal/ui/theme"
)

var learnCmd = &cobra.Command{
	Use:   "learn <course-id>",
	Short: "Work through a course against a progress server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if u, _ := cmd.Flags().GetString("server"); u != "" {
			cfg.Remote.BaseURL = u
		}
		if id, _ := cmd.Flags().GetString("learner"); id != "" {
			cfg.Learner.ID = id
		}
		if cfg.Learner.ID == "" {
			return errors.New("no learner id: set learner.id or pass --learner")
		}
		// Keep info logs off the terminal unless they go to a file.
		if cfg.Logging.FilePath == "" && cfg.Logging.Level != zapcore.DebugLevel.String() {
			cfg.Logging.Level = zapcore.WarnLevel.String()
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		client, err := remote.New(cfg.Remote.BaseURL, &http.Client{Timeout: cfg.Remote.Timeout})
		if err != nil {
			return err
		}

		dir := cfg.Cache.Dir
		if dir == "" {
			if dir, err = cache.DefaultDir(); err != nil {
				return fmt.Errorf("resolve cache dir: %w", err)
			}
		}

		sess := newLearnSession(os.Stdout)
		view, err := courseview.Open(cmd.Context(), client, courseview.Options{
			LearnerID:       cfg.Learner.ID,
			CourseID:        args[0],
			Cache:           cache.New(dir),
			SyncDelay:       cfg.Sync.Debounce,
			SyncPushTimeout: cfg.Sync.PushTimeout,
			Notifier:        courseview.NotifierFunc(sess.notify),
			Logger:          logger,
		})
		if err != nil {
			return err
		}
		defer view.Close()

		sess.view = view
		return sess.run(cmd.Context(), os.Stdin)
	},
}

func init() {
	learnCmd.Flags().String("learner", "", "Learner id (overrides learner.id)")
	learnCmd.Flags().String("server", "", "Progress server base URL (overrides remote.base_url)")
}

const learnHelp = `Commands:
  status          show the course outline and progress
  open <n>        open lecture n
  next            open the next lecture
  watch           finish the open lecture's video
  complete        mark the open lecture complete
  quiz            take the open lecture's quiz
  answer <a b..>  submit one answer per question (letters or numbers)
  retry           try a failed quiz again
  help            show this help
  quit            leave`

// learnSession is the line-oriented front end over a course view.
type learnSession struct {
	view *courseview.View

	// mu guards out: notices arrive from sync goroutines.
	mu  sync.Mutex
	out io.Writer
}

func newLearnSession(out io.Writer) *learnSession {
	return &learnSession{out: out}
}

func (s *learnSession) println(a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, a...)
}

func (s *learnSession) notify(n courseview.Notice) {
	switch n.Kind {
	case courseview.NoticeCourseCompleted:
		s.println(theme.Title.Render("🎉 " + n.Message))
	default:
		s.println(theme.Notice.Render("! " + n.Message))
	}
}

func (s *learnSession) run(ctx context.Context, in io.Reader) error {
	s.status()
	s.println(theme.Hint.Render("Type 'help' for commands."))

	scanner := bufio.NewScanner(in)
	for {
		s.mu.Lock()
		fmt.Fprint(s.out, "> ")
		s.mu.Unlock()

		if !scanner.Scan() {
			return scanner.Err()
		}
		quit, err := s.exec(ctx, scanner.Text())
		if err != nil {
			s.println(theme.Incorrect.Render(err.Error()))
		}
		if quit {
			return nil
		}
	}
}

// exec runs one command line. Errors are for the learner, not fatal.
func (s *learnSession) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		s.println(learnHelp)
	case "status", "ls":
		s.status()
	case "open":
		if len(fields) != 2 {
			return false, errors.New("usage: open <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("not a lecture number: %q", fields[1])
		}
		return false, s.open(n - 1)
	case "next":
		idx, _ := s.view.Selected()
		return false, s.open(idx + 1)
	case "watch":
		gate, err := s.view.OnVideoEnded(ctx)
		if err != nil {
			return false, err
		}
		if gate != nil {
			s.showQuiz(gate)
			return false, nil
		}
		s.println(theme.Done.Render("Lecture complete."))
		s.progress()
	case "complete":
		s.view.OnMarkLectureComplete()
		s.println(theme.Done.Render("Lecture complete."))
		s.progress()
	case "quiz":
		gate, err := s.view.BeginQuiz(ctx)
		if err != nil {
			return false, err
		}
		s.showQuiz(gate)
	case "answer":
		return false, s.answer(ctx, fields[1:])
	case "retry":
		if err := s.view.OnQuizRetry(); err != nil {
			return false, err
		}
		s.showQuiz(s.view.Quiz())
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", fields[0])
	}
	return false, nil
}

func (s *learnSession) open(index int) error {
	n := len(s.view.Course().Lectures)
	if index < 0 || index >= n {
		return fmt.Errorf("lecture %d does not exist (1-%d)", index+1, n)
	}
	if err := s.view.Select(index); err != nil {
		if errors.Is(err, courseview.ErrLocked) {
			return fmt.Errorf("lecture %d is locked, finish the one before it first", index+1)
		}
		return err
	}
	_, l := s.view.Selected()
	title := l.Title
	if title == "" {
		title = l.ID
	}
	s.println(theme.Current.Render(fmt.Sprintf("Now playing %d. %s", index+1, title)))
	return nil
}

func (s *learnSession) answer(ctx context.Context, args []string) error {
	gate := s.view.Quiz()
	if gate == nil {
		return errors.New("no quiz in progress, type 'quiz' first")
	}
	if gate.State() != quizgate.StateInProgress {
		return errors.New("this quiz is not taking answers, type 'retry' or 'quiz'")
	}
	q := gate.Quiz()
	if len(args) != len(q.Questions) {
		return fmt.Errorf("expected %d answers, got %d", len(q.Questions), len(args))
	}

	answers := make([]int, len(args))
	for i, a := range args {
		opt, ok := components.ParseOption(a)
		if !ok || opt >= len(q.Questions[i].Options) {
			return fmt.Errorf("question %d: %q is not an option", i+1, a)
		}
		answers[i] = opt
	}

	res, err := s.view.OnQuizSubmitted(ctx, answers)
	if err != nil {
		return err
	}
	s.println(components.QuizView{Quiz: q, Answers: answers, Result: &res}.View())
	if res.Outcome == quizgate.OutcomePassed {
		s.progress()
	}
	return nil
}

func (s *learnSession) showQuiz(g *quizgate.Gate) {
	if g == nil {
		return
	}
	s.println(components.QuizView{Quiz: g.Quiz(), Answers: g.Answers()}.View())
	s.println(theme.Hint.Render("Answer with: answer <one letter per question>"))
}

func (s *learnSession) status() {
	c := s.view.Course()
	idx, _ := s.view.Selected()
	s.println(theme.Title.Render(c.Title))
	s.println(components.LectureList{Course: c, Record: s.view.Snapshot(), Selected: idx}.View())
	s.progress()
}

func (s *learnSession) progress() {
	s.println(components.NewProgressBar("Progress", s.view.Percent(), 48).View())
}
