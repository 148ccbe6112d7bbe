// Package slideshow drives a timed drawing session. A Controller owns the source set,
// the scheduler and the ticker, and applies every command and tick from one goroutine.
package slideshow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"croquis/internal/resource"
	"croquis/internal/scan"
	"croquis/internal/service"
	"croquis/internal/session"
)

const (
	defaultTickInterval = time.Second
	defaultEventBuffer  = 16
	// MaxTopicLength caps the topic in runes.
	MaxTopicLength = 120
)

// ErrClosed is returned by commands sent after Run has returned.
var ErrClosed = errors.New("slideshow controller closed")

// Loader turns a source into a filtered file set. *service.Service implements it.
type Loader interface {
	Load(ctx context.Context, src scan.Source) (service.Loaded, error)
}

// Ticker delivers the one second countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the default ticker factory.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Snapshot is what the presentation layer needs to render the controller.
type Snapshot struct {
	State      session.State
	Current    *resource.Item
	Timing     session.Timing
	Order      session.OrderMode
	FolderName string
	Topic      string
	SourceLen  int
	Loading    bool
}

// Event is a notification from the controller loop.
type Event interface{ isEvent() }

// StateChanged is sent after every command or tick that changed the session.
type StateChanged struct{ Snapshot Snapshot }

// SourceInstalled is sent when a discovery result replaced the source set.
type SourceInstalled struct {
	FolderName string
	Count      int
}

// NoImages is sent when an installed source set turned out empty.
type NoImages struct{ FolderName string }

// Finished is sent once when a session runs past its last item.
type Finished struct{}

// PromptFolder is sent when start is requested without any images to show.
type PromptFolder struct{}

// LoadFailed is sent when the latest discovery could not be completed.
type LoadFailed struct{ Err error }

func (StateChanged) isEvent()    {}
func (SourceInstalled) isEvent() {}
func (NoImages) isEvent()        {}
func (Finished) isEvent()        {}
func (PromptFolder) isEvent()    {}
func (LoadFailed) isEvent()      {}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default is log.Printf.
func WithLogger(logger func(string)) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithTicker replaces the ticker factory, mostly for tests.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(c *Controller) { c.newTicker = newTicker }
}

// WithRand sets the source used for random order.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// WithEventBuffer sets the capacity of the events channel.
func WithEventBuffer(n int) Option {
	return func(c *Controller) { c.eventBuffer = n }
}

type commandKind int

const (
	cmdSelect commandKind = iota
	cmdStart
	cmdTogglePause
	cmdNext
	cmdStop
	cmdSetTopic
	cmdSnapshot
)

type command struct {
	kind   commandKind
	src    scan.Source
	timing session.Timing
	order  session.OrderMode
	topic  string
	reply  chan Snapshot
}

type loadResult struct {
	generation uint64
	loaded     service.Loaded
	err        error
}

// Controller serializes commands, ticks and discovery installs over one scheduler.
type Controller struct {
	loader      Loader
	reg         *resource.Registry
	logger      func(string)
	newTicker   func(time.Duration) Ticker
	rng         *rand.Rand
	eventBuffer int

	cmds    chan command
	results chan loadResult
	events  chan Event
	done    chan struct{}

	// Everything below is only touched by the Run goroutine.
	sched      *session.Scheduler
	items      []*resource.Item
	folderName string
	topic      string
	order      session.OrderMode
	generation uint64
	loading    bool
	ticker     Ticker
	pending    []Event
}

// New creates a Controller. Nothing happens until Run is called.
func New(loader Loader, reg *resource.Registry, opts ...Option) *Controller {
	c := &Controller{
		loader:      loader,
		reg:         reg,
		newTicker:   NewTimeTicker,
		eventBuffer: defaultEventBuffer,
		cmds:        make(chan command),
		results:     make(chan loadResult),
		done:        make(chan struct{}),
		sched:       session.NewScheduler(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reg == nil {
		c.reg = resource.NewRegistry(nil, resource.LoggerFunc(c.logger))
	}
	if c.eventBuffer < 0 {
		c.eventBuffer = 0
	}
	c.events = make(chan Event, c.eventBuffer)
	return c
}

func (c *Controller) logMessage(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c.logger != nil {
		c.logger(msg)
	} else {
		log.Printf("slideshow: %s", msg)
	}
}

// Events returns the notification channel. It is never closed; select on Done as well.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Run processes commands until ctx is cancelled. On return the session is stopped, the
// ticker released and every locator revoked.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.teardown()

	for {
		var out chan<- Event
		var next Event
		if len(c.pending) > 0 {
			out = c.events
			next = c.pending[0]
		}
		var tick <-chan time.Time
		if c.ticker != nil {
			tick = c.ticker.C()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- next:
			c.pending[0] = nil
			c.pending = c.pending[1:]
		case cmd := <-c.cmds:
			c.handle(ctx, cmd)
		case <-tick:
			c.apply(c.sched.Tick())
		case res := <-c.results:
			c.install(res)
		}
	}
}

func (c *Controller) teardown() {
	c.sched.Stop()
	c.stopTicker()
	c.reg.ReleaseAll(c.items)
	c.items = nil
	if err := c.reg.Close(); err != nil {
		c.logMessage("Closing locator registry: %v", err)
	}
}

func (c *Controller) handle(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdSelect:
		c.selectSource(ctx, cmd.src)
		c.emit(StateChanged{Snapshot: c.snapshot()})
	case cmdStart:
		c.start(cmd.timing, cmd.order)
	case cmdTogglePause:
		c.apply(c.sched.TogglePause())
	case cmdNext:
		c.apply(c.sched.Next())
	case cmdStop:
		c.apply(c.sched.Stop())
	case cmdSetTopic:
		if c.setTopic(cmd.topic) {
			c.emit(StateChanged{Snapshot: c.snapshot()})
		}
	case cmdSnapshot:
	}
	if cmd.reply != nil {
		cmd.reply <- c.snapshot()
	}
}

// selectSource starts a discovery tagged with a fresh generation. Only the newest
// generation is allowed to install. Superseded discoveries are left to finish; only
// teardown cancels them, through ctx.
func (c *Controller) selectSource(ctx context.Context, src scan.Source) {
	c.generation++
	gen := c.generation
	c.loading = true
	c.logMessage("Loading source (generation %d)", gen)

	go func() {
		loaded, err := c.loader.Load(ctx, src)
		select {
		case c.results <- loadResult{generation: gen, loaded: loaded, err: err}:
		case <-c.done:
		}
	}()
}

func (c *Controller) install(res loadResult) {
	if res.generation != c.generation {
		c.logMessage("Discarding superseded source (generation %d, latest %d)", res.generation, c.generation)
		return
	}
	c.loading = false
	if res.err != nil {
		c.logMessage("Loading source failed: %v", res.err)
		c.emit(LoadFailed{Err: res.err})
		c.emit(StateChanged{Snapshot: c.snapshot()})
		return
	}

	// The running session shares items with the old set, so it goes first.
	if r := c.sched.Stop(); r.Changed {
		c.stopTicker()
	}
	c.reg.ReleaseAll(c.items)
	c.items = nil

	items, err := c.reg.Acquire(res.loaded.Files)
	if err != nil {
		c.logMessage("Minting locators failed: %v", err)
		c.emit(LoadFailed{Err: err})
		c.emit(StateChanged{Snapshot: c.snapshot()})
		return
	}
	c.items = items
	c.folderName = res.loaded.FolderName
	c.topic = res.loaded.FolderName

	if len(items) == 0 {
		c.emit(NoImages{FolderName: c.folderName})
	} else {
		c.emit(SourceInstalled{FolderName: c.folderName, Count: len(items)})
	}
	c.emit(StateChanged{Snapshot: c.snapshot()})
}

func (c *Controller) start(timing session.Timing, order session.OrderMode) {
	if c.sched.State().Phase != session.PhaseIdle {
		return
	}
	c.order = order
	if len(c.items) == 0 {
		c.emit(PromptFolder{})
		return
	}
	queue := session.Build(c.items, order, c.rng)
	c.apply(c.sched.Start(queue, timing))
}

// apply keeps the ticker in step with the phase and fans a scheduler result out as events.
func (c *Controller) apply(r session.Result) {
	if r.Ignored || !r.Changed {
		return
	}
	if c.sched.State().Phase.Running() {
		c.startTicker()
	} else {
		c.stopTicker()
	}
	c.emit(StateChanged{Snapshot: c.snapshot()})
	if r.Finished {
		c.logMessage("Session finished")
		c.emit(Finished{})
	}
}

func (c *Controller) startTicker() {
	if c.ticker == nil {
		c.ticker = c.newTicker(defaultTickInterval)
	}
}

func (c *Controller) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

// setTopic reports whether the topic changed. Blank edits keep the previous topic.
func (c *Controller) setTopic(topic string) bool {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return false
	}
	if utf8.RuneCountInString(topic) > MaxTopicLength {
		topic = string([]rune(topic)[:MaxTopicLength])
	}
	if topic == c.topic {
		return false
	}
	c.topic = topic
	return true
}

func (c *Controller) emit(ev Event) {
	c.pending = append(c.pending, ev)
}

func (c *Controller) snapshot() Snapshot {
	var timing session.Timing
	if c.sched.State().Phase.Running() {
		timing = c.sched.Timing()
	}
	return Snapshot{
		State:      c.sched.State(),
		Current:    c.sched.Current(),
		Timing:     timing,
		Order:      c.order,
		FolderName: c.folderName,
		Topic:      c.topic,
		SourceLen:  len(c.items),
		Loading:    c.loading,
	}
}

func (c *Controller) do(cmd command) (Snapshot, error) {
	cmd.reply = make(chan Snapshot, 1)
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return Snapshot{}, ErrClosed
	}
	select {
	case s := <-cmd.reply:
		return s, nil
	case <-c.done:
		return Snapshot{}, ErrClosed
	}
}

// SelectSource starts discovering src. The returned snapshot has Loading set; the result
// arrives later as SourceInstalled, NoImages or LoadFailed.
func (c *Controller) SelectSource(src scan.Source) (Snapshot, error) {
	return c.do(command{kind: cmdSelect, src: src})
}

// Start builds a queue from the current source set and begins drawing. It is ignored
// while a session runs, and emits PromptFolder when there is nothing to show.
func (c *Controller) Start(timing session.Timing, order session.OrderMode) (Snapshot, error) {
	return c.do(command{kind: cmdStart, timing: timing, order: order})
}

// TogglePause freezes or resumes the countdown.
func (c *Controller) TogglePause() (Snapshot, error) {
	return c.do(command{kind: cmdTogglePause})
}

// Next skips to the next item.
func (c *Controller) Next() (Snapshot, error) {
	return c.do(command{kind: cmdNext})
}

// Stop abandons the session without a Finished event.
func (c *Controller) Stop() (Snapshot, error) {
	return c.do(command{kind: cmdStop})
}

// SetTopic renames the current topic.
func (c *Controller) SetTopic(topic string) (Snapshot, error) {
	return c.do(command{kind: cmdSetTopic, topic: topic})
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() (Snapshot, error) {
	return c.do(command{kind: cmdSnapshot})
}
