package session

import "croquis/internal/resource"

// Phase is where the scheduler is in a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDraw
	PhaseBreak
	// PhaseFinished is never held. It only shows up as Result.Finished on the transition
	// that exhausted the queue; the scheduler is already back in PhaseIdle by then.
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDraw:
		return "draw"
	case PhaseBreak:
		return "break"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Running reports whether the phase has a live countdown.
func (p Phase) Running() bool {
	return p == PhaseDraw || p == PhaseBreak
}

// Timing is the per-session countdown configuration.
type Timing struct {
	DrawSeconds  int
	BreakSeconds int
}

func (t Timing) normalized() Timing {
	if t.DrawSeconds < 1 {
		t.DrawSeconds = 1
	}
	if t.BreakSeconds < 0 {
		t.BreakSeconds = 0
	}
	return t
}

// State is the observable scheduler state.
type State struct {
	Phase            Phase
	Index            int // -1 while idle
	SecondsRemaining int
	Paused           bool
	QueueLen         int
}

// Result describes what a command or tick did.
type Result struct {
	From     Phase
	To       Phase
	Changed  bool
	Finished bool // the queue ran out; emitted exactly once per session
	Ignored  bool // the command is meaningless in the current phase
}

// Scheduler is the draw/break state machine. It is not safe for concurrent use; the
// slideshow controller serializes every call.
type Scheduler struct {
	state  State
	queue  []*resource.Item
	timing Timing
}

// NewScheduler returns an idle scheduler.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	s.reset()
	return s
}

func (s *Scheduler) reset() {
	s.queue = nil
	s.state = State{Phase: PhaseIdle, Index: -1}
}

func ignored(p Phase) Result {
	return Result{From: p, To: p, Ignored: true}
}

// State returns a copy of the current state.
func (s *Scheduler) State() State {
	return s.state
}

// Timing returns the timing of the running session.
func (s *Scheduler) Timing() Timing {
	return s.timing
}

// Queue returns a copy of the running session queue.
func (s *Scheduler) Queue() []*resource.Item {
	return append([]*resource.Item(nil), s.queue...)
}

// Current returns the item on screen, or nil while idle.
func (s *Scheduler) Current() *resource.Item {
	if !s.state.Phase.Running() || s.state.Index < 0 || s.state.Index >= len(s.queue) {
		return nil
	}
	return s.queue[s.state.Index]
}

// Start begins a session over queue. It is ignored while a session runs or when queue is empty.
func (s *Scheduler) Start(queue []*resource.Item, timing Timing) Result {
	if s.state.Phase != PhaseIdle || len(queue) == 0 {
		return ignored(s.state.Phase)
	}
	s.queue = queue
	s.timing = timing.normalized()
	s.state.QueueLen = len(queue)
	s.state.Index = 0
	s.enterDraw()
	return Result{From: PhaseIdle, To: PhaseDraw, Changed: true}
}

// Tick counts down one second and handles the zero boundary in the same call.
func (s *Scheduler) Tick() Result {
	from := s.state.Phase
	if !from.Running() || s.state.Paused {
		return ignored(from)
	}

	s.state.SecondsRemaining--
	if s.state.SecondsRemaining > 0 {
		return Result{From: from, To: from, Changed: true}
	}

	if from == PhaseDraw {
		if s.state.Index >= len(s.queue)-1 {
			return s.finish(from)
		}
		return s.enterBreak(from)
	}
	return s.advance(from)
}

// Next skips straight to drawing the next item, bypassing any break.
func (s *Scheduler) Next() Result {
	from := s.state.Phase
	if !from.Running() {
		return ignored(from)
	}
	return s.advance(from)
}

// Stop abandons the session without a finish notification.
func (s *Scheduler) Stop() Result {
	from := s.state.Phase
	if !from.Running() {
		return ignored(from)
	}
	s.reset()
	return Result{From: from, To: PhaseIdle, Changed: true}
}

// TogglePause freezes or resumes the countdown.
func (s *Scheduler) TogglePause() Result {
	from := s.state.Phase
	if !from.Running() {
		return ignored(from)
	}
	s.state.Paused = !s.state.Paused
	return Result{From: from, To: from, Changed: true}
}

func (s *Scheduler) enterDraw() {
	s.state.Phase = PhaseDraw
	s.state.Paused = false
	s.state.SecondsRemaining = s.timing.DrawSeconds
}

// enterBreak passes straight through to the next draw when breaks are zero length.
func (s *Scheduler) enterBreak(from Phase) Result {
	if s.timing.BreakSeconds == 0 {
		return s.advance(from)
	}
	s.state.Phase = PhaseBreak
	s.state.Paused = false
	s.state.SecondsRemaining = s.timing.BreakSeconds
	return Result{From: from, To: PhaseBreak, Changed: true}
}

func (s *Scheduler) advance(from Phase) Result {
	if s.state.Index+1 >= len(s.queue) {
		return s.finish(from)
	}
	s.state.Index++
	s.enterDraw()
	return Result{From: from, To: PhaseDraw, Changed: true}
}

func (s *Scheduler) finish(from Phase) Result {
	s.reset()
	return Result{From: from, To: PhaseIdle, Changed: true, Finished: true}
}
