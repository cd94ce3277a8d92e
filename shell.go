package chatpod

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	shellBanner  = "AI Agent initialized. Type 'quit' to exit."
	shellPrompt  = "You: "
	exitSentinel = "quit"
)

var (
	agentLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Shell reads user messages line by line and prints the agent responses until the
// input ends or the user types quit.
type Shell struct {
	agent   Responder
	session *Session
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger
}

func NewShell(agent Responder, session *Session, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		agent:   agent,
		session: session,
		in:      in,
		out:     out,
		logger:  slog.Default(),
	}
}

func (s *Shell) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Run blocks until the user quits, the input is exhausted, or a response fails with
// an error other than a lost write, which is returned.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprintln(s.out, shellBanner)
	s.logger.Info("Session started", "sessionID", s.session.ID())

	for {
		fmt.Fprint(s.out, shellPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.EqualFold(strings.TrimSpace(line), exitSentinel) {
			return nil
		}

		response, err := s.agent.Respond(ctx, s.session, line)
		if err != nil && !errors.Is(err, ErrTurnNotRecorded) {
			return err
		}
		fmt.Fprintf(s.out, "%s %s\n", agentLabelStyle.Render("Agent:"), response)
		if err != nil {
			fmt.Fprintln(s.out, warningStyle.Render("(this turn could not be saved and won't be part of the conversation history)"))
		}
	}
}
