package nec

import (
	"log/slog"
	"time"

	"github.com/sparques/irnec"
	"github.com/sparques/irnec/background"
	"github.com/sparques/irnec/internal/irq"
)

// DefaultRepeatTimeout is how long a button counts as held without a
// repeat code. Remotes repeat about every 108ms.
const DefaultRepeatTimeout = 220 * time.Millisecond

// Protocol selects the remote variant a Receiver decodes. The zero value
// means no receiver has been connected.
type Protocol int

const (
	ProtocolKeyestudio Protocol = iota + 1
	ProtocolNEC
)

func (p Protocol) String() string {
	switch p {
	case ProtocolKeyestudio:
		return "keyestudio"
	case ProtocolNEC:
		return "nec"
	default:
		return "none"
	}
}

// Button is a command code as reported by a Receiver.
type Button int64

const (
	// NoButton is reported while no button is held.
	NoButton Button = -1
	// AnyButton matches every button when registering handlers.
	AnyButton Button = -1
)

// ButtonOf extracts the button code of a datagram: everything above the
// trailing inverse byte.
func ButtonOf(datagram uint64) Button {
	return Button(datagram >> 8)
}

type Action int

const (
	Pressed Action = iota
	Released
)

type buttonHandler struct {
	button Button
	fn     func()
}

func findHandler(handlers []buttonHandler, b Button) func() {
	for _, h := range handlers {
		if h.button == b || h.button == AnyButton {
			return h.fn
		}
	}
	return nil
}

// Receiver decodes NEC pulse trains and turns them into press, release and
// datagram notifications. Handlers run on the scheduler's UserCallback
// queue, never in the pulse handler. The pulse handler path takes no mutex
// and does not allocate, so it may run in interrupt context.
//
// NEC has no release code: a button is considered released once no repeat
// code arrived within the repeat timeout.
type Receiver struct {
	sched         *background.Scheduler
	clock         irnec.Clock
	log           *slog.Logger
	repeatTimeout time.Duration
	taps          []irnec.RxStateMachine

	mu         irq.Lock
	protocol   Protocol
	rx         *irnec.RxDevice
	dec        Decoder
	active     Button
	deadline   time.Duration
	unread     bool
	received   bool
	pressed    []buttonHandler
	released   []buttonHandler
	onDatagram func()
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithClock sets the clock the repeat timeout is measured with.
func WithClock(c irnec.Clock) Option {
	return func(r *Receiver) {
		r.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Receiver) {
		r.log = l
	}
}

// WithRepeatTimeout changes how long a button stays held without repeat codes.
func WithRepeatTimeout(d time.Duration) Option {
	return func(r *Receiver) {
		if d > 0 {
			r.repeatTimeout = d
		}
	}
}

// WithTap also hands every mark/space pair to sm, after the decoder has
// seen it. sm runs in the pulse handler.
func WithTap(sm irnec.RxStateMachine) Option {
	return func(r *Receiver) {
		if sm != nil {
			r.taps = append(r.taps, sm)
		}
	}
}

func NewReceiver(sched *background.Scheduler, opts ...Option) *Receiver {
	r := &Receiver{
		sched:         sched,
		repeatTimeout: DefaultRepeatTimeout,
		active:        NoButton,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.clock == nil {
		r.clock = irnec.SystemClock()
	}
	if r.log == nil {
		r.log = irnec.DiscardLogger()
	}
	return r
}

// Connect starts decoding pulses from src. Only the first call with a
// valid protocol has any effect.
func (r *Receiver) Connect(src irnec.EdgeSource, p Protocol) {
	if p != ProtocolKeyestudio && p != ProtocolNEC {
		return
	}

	var sm irnec.RxStateMachine = r
	if len(r.taps) > 0 {
		sm = irnec.MultiRxStateMachine(append([]irnec.RxStateMachine{r}, r.taps...)...)
	}
	rx := irnec.NewRxDevice(src, sm)

	r.mu.Lock()
	if r.protocol != 0 {
		r.mu.Unlock()
		return
	}
	r.protocol = p
	r.rx = rx
	r.mu.Unlock()

	// executors must exist before the first pulse: the pulse handler may not
	// create them
	r.sched.Open(background.Priority, background.UserCallback)
	r.sched.Schedule(r.checkRelease, background.Priority, background.Repeat, r.repeatTimeout)
	rx.StartInverted()
	r.log.Info("ir receiver connected",
		slog.String("protocol", p.String()),
		slog.Duration("repeat_timeout", r.repeatTimeout))
}

// HandleTimePair implements irnec.RxStateMachine. It runs in the pulse
// handler and only updates state and queues handlers.
func (r *Receiver) HandleTimePair(pair irnec.TimePair) {
	r.mu.Lock()
	r.handle(pair)
	r.mu.Unlock()
}

func (r *Receiver) handle(pair irnec.TimePair) {
	ev := r.dec.Decode(pair.Mark() + pair.Space())
	if ev == EventIncomplete {
		return
	}

	r.deadline = r.clock.Now() + r.repeatTimeout
	if ev != EventDatagram {
		return
	}

	r.unread = true
	r.received = true
	if r.onDatagram != nil {
		r.dispatch(r.onDatagram)
	}

	cmd := ButtonOf(r.dec.Datagram())
	if cmd == r.active {
		return
	}
	if r.active != NoButton {
		r.dispatch(findHandler(r.released, r.active))
	}
	r.dispatch(findHandler(r.pressed, cmd))
	r.active = cmd
}

// dispatch queues fn on the UserCallback queue. The executor copies the job
// into a fixed arena; if the arena is full the callback is dropped.
func (r *Receiver) dispatch(fn func()) {
	if fn == nil {
		return
	}
	r.sched.Schedule(fn, background.UserCallback, background.Once, 0)
}

// checkRelease runs periodically on the Priority queue.
func (r *Receiver) checkRelease() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == NoButton {
		return
	}
	if r.clock.Now() <= r.deadline {
		return
	}

	r.log.Debug("ir button released", slog.Int64("button", int64(r.active)))
	r.dispatch(findHandler(r.released, r.active))
	r.dec.Reset()
	r.active = NoButton
}

// OnButton registers fn to run when button is pressed or released. The
// first registered handler matching a button wins; AnyButton matches all.
func (r *Receiver) OnButton(button Button, action Action, fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h := buttonHandler{button: button, fn: fn}
	if action == Pressed {
		r.pressed = append(r.pressed, h)
	} else {
		r.released = append(r.released, h)
	}
}

// OnDatagram registers fn to run after every datagram. It replaces any
// previous datagram handler.
func (r *Receiver) OnDatagram(fn func()) {
	r.mu.Lock()
	r.onDatagram = fn
	r.mu.Unlock()
}

// WasDataReceived reports whether a datagram arrived since the last call.
func (r *Receiver) WasDataReceived() bool {
	r.sched.Yield()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unread {
		r.unread = false
		return true
	}
	return false
}

// Datagram returns the last datagram as hex, e.g. 0xFF02FD, or 0x00000000
// if nothing has been received yet.
func (r *Receiver) Datagram() string {
	r.sched.Yield()
	r.mu.Lock()
	defer r.mu.Unlock()
	return FormatDatagram(r.dec.Datagram())
}

// LastButton returns the button of the last datagram, or NoButton if none
// was received yet.
func (r *Receiver) LastButton() Button {
	r.sched.Yield()
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.received {
		return NoButton
	}
	return ButtonOf(r.dec.Datagram())
}

// HeldButton returns the button currently held, or NoButton.
func (r *Receiver) HeldButton() Button {
	r.sched.Yield()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// MaxBits reports the most bits seen in a frame that ended early.
func (r *Receiver) MaxBits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dec.MaxBits()
}

func (r *Receiver) Protocol() Protocol {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.protocol
}
