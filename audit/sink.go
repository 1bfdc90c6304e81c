package audit

import (
	"time"

	"github.com/rs/zerolog"
)

// Decision labels recorded per request.
const (
	DecisionAllow           = "allow"
	DecisionUnauthenticated = "unauthenticated"
	DecisionForbidden       = "forbidden"
	DecisionRateLimited     = "rate_limited"
)

// Anonymous is recorded when no principal could be established.
const Anonymous = "anonymous"

type Event struct {
	Timestamp   time.Time
	PrincipalID string
	Role        string
	Method      string
	Path        string
	IP          string
	Decision    string
	Detail      string
}

// Sink buffers access decisions and drains them to the log off the
// request path. Record never blocks: when the buffer is full the oldest
// event is dropped to make room.
type Sink struct {
	ch      chan Event
	log     zerolog.Logger
	done    chan struct{}
	dropped func() // optional hook, used for the drop counter
}

func NewSink(log zerolog.Logger, size int) *Sink {
	if size <= 0 {
		size = 1024
	}
	s := &Sink{
		ch:   make(chan Event, size),
		log:  log,
		done: make(chan struct{}),
	}
	go s.drain()
	return s
}

// OnDrop installs a hook invoked once per dropped event.
func (s *Sink) OnDrop(fn func()) { s.dropped = fn }

func (s *Sink) Record(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.PrincipalID == "" {
		e.PrincipalID = Anonymous
	}
	for {
		select {
		case s.ch <- e:
			return
		default:
		}
		// Buffer full: evict the oldest and retry.
		select {
		case <-s.ch:
			if s.dropped != nil {
				s.dropped()
			}
		default:
		}
	}
}

func (s *Sink) drain() {
	defer close(s.done)
	for e := range s.ch {
		s.log.Info().
			Time("ts", e.Timestamp).
			Str("principal", e.PrincipalID).
			Str("role", e.Role).
			Str("method", e.Method).
			Str("path", e.Path).
			Str("ip", e.IP).
			Str("decision", e.Decision).
			Str("detail", e.Detail).
			Msg("access")
	}
}

// Close flushes buffered events and stops the drain goroutine.
func (s *Sink) Close() {
	close(s.ch)
	<-s.done
}
