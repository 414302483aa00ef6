// Package dispatcher routes decoded commands to their handlers. Handlers run
// synchronously by default; buffered handlers get a queue and a single worker
// so high-volume commands keep their arrival order.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Queued is the result of a command accepted into a buffered queue.
const Queued = "queued"

var (
	// ErrUnknownCommand is returned for commands without a handler.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrQueueFull is returned when a non-blocking buffered handler drops an event.
	ErrQueueFull = errors.New("queue full")
	// ErrClosed is returned for buffered commands after Close.
	ErrClosed = errors.New("dispatcher closed")
)

// Event is one decoded command line.
type Event struct {
	// ID correlates the command with its response, empty when the client
	// does not need one.
	ID        string
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type route struct {
	handle   HandlerFunc
	buffered bool
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	routes  map[string]route
	logger  Logger
	metrics *instruments

	// mu guards buffers and closed; senders hold the read lock so Close
	// never closes a channel under them.
	mu      sync.RWMutex
	buffers map[string]chan Event
	closed  bool
	workers sync.WaitGroup
}

// New creates a new Dispatcher with the given logger. Metrics use the global
// OTel meter.
func New(logger Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	d := &Dispatcher{
		routes:  make(map[string]route),
		buffers: make(map[string]chan Event),
		logger:  logger,
	}
	ins, err := newInstruments(d.depths)
	if err != nil {
		return nil, err
	}
	d.metrics = ins
	return d, nil
}

// Register adds a handler for the given command with optional configuration.
// Registering a command twice replaces the earlier handler.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logged {
		h = d.withLogging(command, h)
	}
	r := route{handle: h}
	if cfg.bufferSize > 0 {
		r.handle = d.withBuffer(command, cfg.bufferSize, cfg.blocking, h)
		r.buffered = true
	}
	d.routes[command] = r
}

// Dispatch routes an event to its registered handler. Buffered commands
// return Queued once accepted.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	r, ok := d.routes[e.Command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if r.buffered {
		return r.handle(e)
	}
	return d.run(e.Command, r.handle, e)
}

// run calls h and records its latency and failure.
func (d *Dispatcher) run(command string, h HandlerFunc, e Event) (any, error) {
	start := time.Now()
	result, err := h(e)
	attr := commandAttr(command)
	d.metrics.latency.Record(context.Background(), time.Since(start).Seconds(), attr)
	if err != nil {
		d.metrics.failed.Add(context.Background(), 1, attr)
	}
	return result, err
}

// Commands returns the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.routes))
	for cmd := range d.routes {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.routes[command]
	return ok
}

func (d *Dispatcher) depths() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]int, len(d.buffers))
	for cmd, buf := range d.buffers {
		out[cmd] = len(buf)
	}
	return out
}

// QueueDepth returns the number of events waiting across all buffers.
func (d *Dispatcher) QueueDepth() int {
	n := 0
	for _, depth := range d.depths() {
		n += depth
	}
	return n
}

// Close stops accepting buffered events and waits until every queued event
// has been handled. Synchronous handlers keep working.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, buf := range d.buffers {
		close(buf)
	}
	d.mu.Unlock()
	d.workers.Wait()
}

func (d *Dispatcher) withBuffer(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan Event, size)

	d.mu.Lock()
	d.buffers[command] = buffer
	d.mu.Unlock()

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range buffer {
			if _, err := d.run(command, h, e); err != nil {
				d.logger.Error("buffered event failed", "command", command, "id", e.ID, "error", err)
			}
			d.metrics.processed.Add(context.Background(), 1, commandAttr(command))
		}
	}()

	return func(e Event) (any, error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, fmt.Errorf("%w: %s", ErrClosed, command)
		}
		if blocking {
			buffer <- e
			return Queued, nil
		}
		select {
		case buffer <- e:
			return Queued, nil
		default:
			d.metrics.dropped.Add(context.Background(), 1, commandAttr(command))
			d.logger.Error("queue full, event dropped", "command", command, "id", e.ID, "size", size)
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "id", e.ID, "args", len(e.Args))

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "command", command, "id", e.ID, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "id", e.ID, "duration", time.Since(start))
		}

		return result, err
	}
}
