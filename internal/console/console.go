// Package console is the participant's interactive shell, speaking to
// the local agent's HTTP API.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

// Session holds console state.
type Session struct {
	client      *Client
	participant string
	prettyJSON  bool
}

// New creates a console session.
func New(client *Client, participant string, prettyJSON bool) *Session {
	return &Session{
		client:      client,
		participant: participant,
		prettyJSON:  prettyJSON,
	}
}

// Run drives the read-eval loop until exit or EOF.
func (s *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "judge> ",
		HistoryFile:     historyPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s.printLine("Connected as %q. Type \"help\" for commands.", s.participant)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			s.printLine("bye")
			return nil
		}
		if err := s.handleCommand(ctx, line); err != nil {
			s.printLine("error: %v", err)
		}
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}
	switch tokens[0] {
	case "help":
		s.printHelp()
		return nil
	case "set":
		return s.handleSet(tokens[1:])
	case "status":
		return s.get(ctx, "/status")
	case "problems":
		return s.get(ctx, "/problems")
	case "scoreboard":
		return s.get(ctx, "/scoreboard")
	case "run":
		return s.handleRun(ctx, tokens[1:])
	case "job":
		return s.handleJob(ctx, tokens[1:])
	case "jobs":
		return s.get(ctx, "/jobs")
	case "submit":
		return s.handleSubmit(ctx, tokens[1:])
	case "lockdown":
		return s.handleLockdown(ctx, tokens[1:])
	default:
		return fmt.Errorf("unknown command: %s", tokens[0])
	}
}

func (s *Session) handleSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set agent <url> | set name <participant>")
	}
	switch args[0] {
	case "agent":
		s.client.SetBaseURL(args[1])
		s.printLine("agent set to %s", args[1])
	case "name":
		s.participant = args[1]
		s.printLine("participant set to %s", args[1])
	default:
		return fmt.Errorf("unknown set target: %s", args[0])
	}
	return nil
}

// handleRun starts an async test run: run <problem_id> <language> <source_file>
func (s *Session) handleRun(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: run <problem_id> <language> <source_file>")
	}
	code, err := os.ReadFile(args[2])
	if err != nil {
		return fmt.Errorf("read source file failed: %w", err)
	}
	body, err := json.Marshal(map[string]string{
		"problem_id": args[0],
		"language":   args[1],
		"code":       string(code),
	})
	if err != nil {
		return err
	}
	return s.post(ctx, "/run-async", body)
}

// handleJob polls or cancels one job: job status <id> | job cancel <id>
func (s *Session) handleJob(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: job status <id> | job cancel <id>")
	}
	switch args[0] {
	case "status":
		return s.get(ctx, "/job-status/"+args[1])
	case "cancel":
		return s.post(ctx, "/job-cancel/"+args[1], nil)
	default:
		return fmt.Errorf("unknown job action: %s", args[0])
	}
}

// handleSubmit submits for real judging: submit <problem_id> <language> <source_file>
func (s *Session) handleSubmit(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: submit <problem_id> <language> <source_file>")
	}
	if s.participant == "" {
		return fmt.Errorf("participant name is empty, use: set name <participant>")
	}
	code, err := os.ReadFile(args[2])
	if err != nil {
		return fmt.Errorf("read source file failed: %w", err)
	}
	body, err := json.Marshal(map[string]string{
		"participant_name": s.participant,
		"problem_id":       args[0],
		"language":         args[1],
		"code":             string(code),
	})
	if err != nil {
		return err
	}
	return s.post(ctx, "/submit", body)
}

func (s *Session) handleLockdown(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: lockdown on|off|status|emergency")
	}
	switch args[0] {
	case "on":
		return s.post(ctx, "/lockdown", []byte(`{"action":"enable"}`))
	case "off":
		return s.post(ctx, "/lockdown", []byte(`{"action":"disable"}`))
	case "status":
		return s.get(ctx, "/lockdown-status")
	case "emergency":
		return s.post(ctx, "/lockdown-emergency", nil)
	default:
		return fmt.Errorf("unknown lockdown action: %s", args[0])
	}
}

func (s *Session) get(ctx context.Context, path string) error {
	resp, err := s.client.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	s.renderResponse(resp)
	return nil
}

func (s *Session) post(ctx context.Context, path string, body []byte) error {
	resp, err := s.client.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	s.renderResponse(resp)
	return nil
}

func (s *Session) renderResponse(resp ResponseInfo) {
	s.printLine("HTTP %d (%s)", resp.StatusCode, resp.Duration)
	if len(resp.Body) == 0 {
		return
	}
	if s.prettyJSON {
		var raw interface{}
		if err := json.Unmarshal(resp.Body, &raw); err == nil {
			formatted, _ := json.MarshalIndent(raw, "", "  ")
			s.printLine("%s", string(formatted))
			return
		}
	}
	s.printLine("%s", string(resp.Body))
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	s.printLine("  problems                                  list problems")
	s.printLine("  run <problem_id> <language> <file>        start an async test run")
	s.printLine("  job status <id> | job cancel <id>         inspect or cancel a run")
	s.printLine("  jobs                                      list runs")
	s.printLine("  submit <problem_id> <language> <file>     submit for judging")
	s.printLine("  scoreboard                                show standings")
	s.printLine("  lockdown on|off|status|emergency          control network lockdown")
	s.printLine("  status                                    agent health")
	s.printLine("  set agent <url> | set name <participant>")
	s.printLine("  help | exit")
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stdout, format+"\n", args...)
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.shunyata_history"
}
