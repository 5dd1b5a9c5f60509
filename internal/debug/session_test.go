package debug

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTransitions(t *testing.T) {
	s := NewSession("")
	assert.Equal(t, Running, s.State())
	assert.NotEmpty(t, s.ID)

	require.NoError(t, s.Apply(Command{Type: CmdStep}))
	assert.Equal(t, Stepping, s.State())

	// resume clears step mode
	require.NoError(t, s.Apply(Command{Type: CmdResume}))
	assert.Equal(t, Running, s.State())

	s.Publish(Event{Type: EventPaused})
	assert.Equal(t, Paused, s.State())

	require.NoError(t, s.Apply(Command{Type: CmdResume}))
	assert.Equal(t, Running, s.State())
}

func TestSessionStopIsTerminal(t *testing.T) {
	s := NewSession("")
	require.NoError(t, s.Apply(Command{Type: CmdStop}))
	assert.Equal(t, Stopped, s.State())

	err := s.Apply(Command{Type: CmdResume})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped")
	assert.Equal(t, Stopped, s.State())

	// a late paused event cannot revive the session
	s.Publish(Event{Type: EventPaused})
	assert.Equal(t, Stopped, s.State())
}

func TestSessionBreakpoints(t *testing.T) {
	s := NewSession("")
	require.NoError(t, s.Apply(Command{Type: CmdSetBreakpoints, Lines: []int{12, 3, 7}}))
	assert.Equal(t, []int{3, 7, 12}, s.Breakpoints())
	assert.Equal(t, Running, s.State())

	require.NoError(t, s.Apply(Command{Type: CmdSetBreakpoints, Lines: []int{5}}))
	assert.Equal(t, []int{5}, s.Breakpoints())
}

func TestSessionUnknownCommand(t *testing.T) {
	s := NewSession("")
	err := s.Apply(Command{Type: "jump"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown debug command "jump"`)
}

func TestDispatchWritesCommandFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "commands.json")
	s := NewSession(file)

	require.NoError(t, s.Dispatch(Command{Type: CmdSetBreakpoints, Lines: []int{4}}))

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	var cmd Command
	require.NoError(t, json.Unmarshal(raw, &cmd))
	assert.Equal(t, CmdSetBreakpoints, cmd.Type)
	assert.Equal(t, []int{4}, cmd.Lines)

	// both channels land on the same state
	assert.Equal(t, []int{4}, s.Breakpoints())

	require.NoError(t, s.Dispatch(Command{Type: CmdStep}))
	assert.Equal(t, Stepping, s.State())
	raw, err = os.ReadFile(file)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &cmd))
	assert.Equal(t, CmdStep, cmd.Type)
}

func TestDispatchRejectedCommandLeavesFileAlone(t *testing.T) {
	file := filepath.Join(t.TempDir(), "commands.json")
	s := NewSession(file)
	require.NoError(t, s.Apply(Command{Type: CmdStop}))

	require.Error(t, s.Dispatch(Command{Type: CmdResume}))
	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))
}

func TestSubscribeFanOut(t *testing.T) {
	s := NewSession("")
	first, cancelFirst := s.Subscribe()
	second, cancelSecond := s.Subscribe()
	defer cancelSecond()

	s.Publish(Event{Type: "step:before"})

	ev := <-first
	assert.Equal(t, "step:before", ev.Type)
	ev = <-second
	assert.Equal(t, "step:before", ev.Type)

	cancelFirst()
	_, open := <-first
	assert.False(t, open)

	// cancelled subscriber no longer receives
	s.Publish(Event{Type: "step:after"})
	ev = <-second
	assert.Equal(t, "step:after", ev.Type)
}

func TestPublishDropsWhenSubscriberIsFull(t *testing.T) {
	s := NewSession("")
	ch, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < 40; i++ {
		s.Publish(Event{Type: "variable"})
	}
	// buffer holds 16; the rest were dropped, not blocked on
	assert.Len(t, ch, 16)
}
