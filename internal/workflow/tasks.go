package workflow

import (
	"context"
	"strings"
	"time"
)

const (
	opGenerate    = "generate"
	opConsolidate = "consolidate"
	opRefresh     = "refresh:"
)

// task is one in-flight generation call.
type task struct {
	cancel context.CancelFunc
	epoch  uint64
}

// session is the engine's view of one conversation.
type session struct {
	state State
	// epoch moves on whenever the step changes, so results started under an
	// older step can be recognized and dropped.
	epoch uint64
	tasks map[string]*task
	// lastUsed is when the engine last handed the session out.
	lastUsed time.Time
}

func newSession(s State) *session {
	return &session{state: s, tasks: make(map[string]*task)}
}

// begin registers op, cancelling a previous call for the same op.
func (s *session) begin(ctx context.Context, op string) (context.Context, *task) {
	if prev, ok := s.tasks[op]; ok {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel, epoch: s.epoch}
	s.tasks[op] = t
	return ctx, t
}

// finish unregisters t and reports whether its result may still be applied.
func (s *session) finish(op string, t *task) bool {
	current := s.tasks[op] == t
	if current {
		delete(s.tasks, op)
	}
	t.cancel()
	return current && t.epoch == s.epoch
}

func (s *session) busy(op string) bool {
	_, ok := s.tasks[op]
	return ok
}

func (s *session) cancelAll() {
	for op, t := range s.tasks {
		t.cancel()
		delete(s.tasks, op)
	}
}

func (s *session) cancelPrefix(prefix string) {
	for op, t := range s.tasks {
		if strings.HasPrefix(op, prefix) {
			t.cancel()
			delete(s.tasks, op)
		}
	}
}

// set replaces the state, moving the epoch on when the step changes.
func (s *session) set(next State) {
	if s.state == nil || next.Step() != s.state.Step() {
		s.epoch++
	}
	s.state = next
}
