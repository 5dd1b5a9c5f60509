// Package debug hosts the step-debugging side channel for generated
// tests. A Session owns the breakpoint set and the execution state;
// commands reach the test process through an atomically written
// command file and a WebSocket, and runtime events fan out to
// subscribers.
package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// State is the execution mode of the debugged process as the host
// understands it.
type State string

const (
	Running  State = "running"
	Paused   State = "paused"
	Stepping State = "stepping"
	Stopped  State = "stopped"
)

// Command kinds accepted from the file channel and the WebSocket.
const (
	CmdResume         = "resume"
	CmdStep           = "step"
	CmdStop           = "stop"
	CmdSetBreakpoints = "set-breakpoints"
)

// Command is one inbound debug instruction.
type Command struct {
	Type  string `json:"type"`
	Lines []int  `json:"lines,omitempty"`
}

// Event is one outbound runtime notification from the generated
// process: step:before, step:after, execution:paused or variable.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EventPaused is sent by the instrumented runtime when it suspends.
const EventPaused = "execution:paused"

// Session is one debugging session over one test run. All state
// transitions, whichever channel delivered the command, go through
// Apply; once stopped the session refuses everything.
type Session struct {
	ID          string
	commandFile string

	mu          sync.Mutex
	state       State
	breakpoints map[int]bool
	subs        map[chan Event]struct{}
}

// NewSession creates a running session. commandFile may be empty when
// only the WebSocket channel is in use.
func NewSession(commandFile string) *Session {
	return &Session{
		ID:          uuid.NewString(),
		commandFile: commandFile,
		state:       Running,
		breakpoints: map[int]bool{},
		subs:        map[chan Event]struct{}{},
	}
}

// State returns the current execution mode.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Breakpoints returns the registered lines in ascending order.
func (s *Session) Breakpoints() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]int, 0, len(s.breakpoints))
	for line := range s.breakpoints {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// Apply transitions the session. resume clears both pause and step
// mode, step arms stepping, stop is terminal.
func (s *Session) Apply(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped {
		return fmt.Errorf("session %s is stopped", s.ID)
	}
	switch cmd.Type {
	case CmdResume:
		s.state = Running
	case CmdStep:
		s.state = Stepping
	case CmdStop:
		s.state = Stopped
	case CmdSetBreakpoints:
		s.breakpoints = make(map[int]bool, len(cmd.Lines))
		for _, line := range cmd.Lines {
			s.breakpoints[line] = true
		}
	default:
		return fmt.Errorf("unknown debug command %q", cmd.Type)
	}
	return nil
}

// Dispatch applies a command and forwards it to the file channel so
// the polling side of the generated runtime sees it too.
func (s *Session) Dispatch(cmd Command) error {
	if err := s.Apply(cmd); err != nil {
		return err
	}
	if s.commandFile == "" {
		return nil
	}
	return s.writeCommandFile(cmd)
}

// writeCommandFile replaces the command file atomically so the poller
// never reads a partial write.
func (s *Session) writeCommandFile(cmd Command) error {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encoding debug command: %w", err)
	}
	dir := filepath.Dir(s.commandFile)
	tmp, err := os.CreateTemp(dir, ".vero-cmd-*")
	if err != nil {
		return fmt.Errorf("writing debug command: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing debug command: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing debug command: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.commandFile); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing debug command: %w", err)
	}
	return nil
}

// Subscribe registers an event listener. The returned cancel function
// releases it; the channel is closed on cancel.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans an event out to every subscriber. A paused event also
// moves the session state, keeping the host's view in step with the
// process. Slow subscribers drop events rather than block the bridge.
func (s *Session) Publish(ev Event) {
	s.mu.Lock()
	if ev.Type == EventPaused && s.state != Stopped {
		s.state = Paused
	}
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}
