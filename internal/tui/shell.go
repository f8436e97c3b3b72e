package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"ocrdrop/internal/ocr"
	"ocrdrop/internal/processor"
	"ocrdrop/internal/results"
	"ocrdrop/internal/session"
)

type inputMode int

const (
	modeDrop inputMode = iota
	modeSave
)

// Shell is the interactive application: paths typed or dropped (pasted)
// start a batch, ctrl+s saves, ctrl+l clears, esc or ctrl+c quits.
//
// The Session is only touched from Update, so outcomes reach it one at a
// time through outcomeMsg.
type Shell struct {
	session *session.Session
	rec     ocr.Recognizer
	opts    processor.Options

	mode   inputMode
	input  []rune
	status string
	warn   bool
	cancel context.CancelFunc

	width  int
	height int
}

type outcomeMsg struct {
	id      uuid.UUID
	outcome ocr.Outcome
	updates <-chan ocr.Outcome
}

type batchDoneMsg struct {
	id uuid.UUID
}

func NewShell(sess *session.Session, rec ocr.Recognizer, opts processor.Options) *Shell {
	return &Shell{
		session: sess,
		rec:     rec,
		opts:    opts,
		status:  "Drop images or folders here, or type their paths and press enter.",
	}
}

func (s *Shell) Init() tea.Cmd { return nil }

func (s *Shell) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height
		return s, nil
	case outcomeMsg:
		if s.session.Apply(msg.outcome) && !s.session.Running() {
			s.setStatus(s.session.Progress().String(), false)
		}
		return s, waitForOutcome(msg.id, msg.updates)
	case batchDoneMsg:
		if msg.id == s.session.BatchID() {
			s.session.Finish(msg.id)
			s.stop()
		}
		return s, nil
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Shell) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		s.stop()
		return s, tea.Quit
	case tea.KeyEsc:
		if s.mode == modeSave {
			s.mode = modeDrop
			s.input = nil
			s.setStatus("Save cancelled.", false)
			return s, nil
		}
		s.stop()
		return s, tea.Quit
	case tea.KeyCtrlL:
		s.clear()
		return s, nil
	case tea.KeyCtrlS:
		if len(s.session.Texts()) == 0 {
			s.setStatus(results.ErrNothingToSave.Error()+".", true)
			return s, nil
		}
		s.mode = modeSave
		s.input = []rune("ocr_results.txt")
		s.setStatus("Save extracted text to:", false)
		return s, nil
	case tea.KeyEnter:
		return s.submit()
	case tea.KeyBackspace:
		if n := len(s.input); n > 0 {
			s.input = s.input[:n-1]
		}
		return s, nil
	case tea.KeySpace:
		s.input = append(s.input, ' ')
		return s, nil
	case tea.KeyRunes:
		s.input = append(s.input, msg.Runes...)
		// A drop arrives as one bracketed paste; treat it as submitted.
		if msg.Paste && s.mode == modeDrop {
			return s.submit()
		}
		return s, nil
	}
	return s, nil
}

func (s *Shell) submit() (tea.Model, tea.Cmd) {
	line := string(s.input)
	s.input = nil

	if s.mode == modeSave {
		s.mode = modeDrop
		s.save(strings.TrimSpace(line))
		return s, nil
	}

	paths := SplitPaths(line)
	if len(paths) == 0 {
		return s, nil
	}
	return s, s.start(paths)
}

func (s *Shell) start(paths []string) tea.Cmd {
	batch, err := s.session.Begin(paths)
	if err != nil {
		s.setStatus(err.Error(), true)
		return nil
	}
	s.setStatus(s.session.Progress().String(), false)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	updates := make(chan ocr.Outcome)
	go func() {
		defer close(updates)
		if _, err := processor.Run(ctx, batch, s.rec, s.opts, updates); err != nil {
			slog.Error("batch failed", "batch", batch.ID.String(), "err", err)
		}
	}()
	return waitForOutcome(batch.ID, updates)
}

func waitForOutcome(id uuid.UUID, updates <-chan ocr.Outcome) tea.Cmd {
	return func() tea.Msg {
		o, ok := <-updates
		if !ok {
			return batchDoneMsg{id: id}
		}
		return outcomeMsg{id: id, outcome: o, updates: updates}
	}
}

func (s *Shell) save(path string) {
	if path == "" {
		s.setStatus("Save cancelled.", false)
		return
	}
	if err := s.session.Save(path); err != nil {
		if errors.Is(err, results.ErrNothingToSave) {
			s.setStatus(err.Error()+".", true)
			return
		}
		s.setStatus(fmt.Sprintf("Could not save %s: %v", path, err), true)
		return
	}
	slog.Info("results saved", "path", path, "texts", len(s.session.Texts()))
	s.setStatus("Saved extracted text to "+path, false)
}

func (s *Shell) clear() {
	s.stop()
	s.session.Clear()
	s.mode = modeDrop
	s.input = nil
	s.setStatus("Cleared.", false)
}

func (s *Shell) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Shell) setStatus(text string, warn bool) {
	s.status = text
	s.warn = warn
}

func (s *Shell) View() string {
	p := s.session.Progress()

	status := okStyle.Render(s.status)
	if s.warn {
		status = warnStyle.Render(s.status)
	}

	header := []string{
		titleStyle.Render("ocrdrop") + dimStyle.Render("  "+s.opts.Profile.Name+" profile"),
		labelStyle.Render(p.String()),
		barStyle.Render(renderBar(barWidth(s.width), p.Ratio())) + " " + labelStyle.Render(fmt.Sprintf("%3d%%", p.Percent())),
	}
	footer := []string{
		status,
		promptStyle.Render(s.prompt()) + labelStyle.Render(string(s.input)) + dimStyle.Render("_"),
		dimStyle.Render("enter: process  ctrl+s: save  ctrl+l: clear  esc: quit"),
	}

	body := tail(s.session.Display(), s.height-len(header)-len(footer)-2)
	return strings.Join(header, "\n") + "\n\n" + body + "\n" + strings.Join(footer, "\n")
}

func (s *Shell) prompt() string {
	if s.mode == modeSave {
		return "save> "
	}
	return "drop> "
}

// tail keeps the last n lines of text; n <= 0 keeps everything.
func tail(text string, n int) string {
	text = strings.TrimRight(text, "\n")
	if n <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
