package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the segmenter mode.
type State int

const (
	// StateAFK means no session is open. An AFK block may or may not be open.
	StateAFK State = iota
	// StateActive means a session is open.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateAFK:
		return "afk"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config controls segmentation.
type Config struct {
	// Timeout is the idle time after which the user is considered away.
	Timeout time.Duration
	// MinSession is the shortest session kept on its own.
	MinSession time.Duration
	// RealBreak is the AFK length above which a short session is dropped instead of merged.
	RealBreak time.Duration
	// Location decides where day boundaries fall.
	Location *time.Location
}

// DefaultConfig returns the stock segmentation settings.
func DefaultConfig() Config {
	return Config{
		Timeout:    180 * time.Second,
		MinSession: 5 * time.Minute,
		RealBreak:  30 * time.Minute,
		Location:   time.Local,
	}
}

// TransitionKind names a boundary change.
type TransitionKind string

const (
	SessionOpened  TransitionKind = "session_opened"
	SessionClosed  TransitionKind = "session_closed"
	SessionMerged  TransitionKind = "session_merged"
	SessionDropped TransitionKind = "session_dropped"
	AFKStarted     TransitionKind = "afk_started"
	AFKEnded       TransitionKind = "afk_ended"
)

// Transition is one boundary change to persist. Transitions must be applied in order.
//
//	SessionOpened:  insert Session.
//	SessionClosed:  set Session end.
//	SessionMerged:  move Session's rows to Target, extend Target, delete AFK and Session.
//	SessionDropped: unlink Session's rows, delete Session, reopen AFK, insert Gap.
//	AFKStarted:     insert AFK.
//	AFKEnded:       set AFK end.
type Transition struct {
	Kind    TransitionKind
	Session *Session
	Target  *Session
	AFK     *AFKBlock
	Gap     *Gap
}

// Segmenter turns activity timestamps into sessions and AFK blocks.
// It is a value: every method returns the next Segmenter and leaves the receiver untouched,
// so callers adopt the new value only after its transitions are committed.
type Segmenter struct {
	cfg   Config
	newID func() string

	state    State
	lastSeen time.Time

	current  *Session
	bridge   *AFKBlock
	afk      *AFKBlock
	previous *Session
}

// NewSegmenter returns a segmenter in the AFK state with nothing open.
func NewSegmenter(cfg Config) Segmenter {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return Segmenter{cfg: cfg, newID: uuid.NewString, state: StateAFK}
}

// Restore positions a segmenter from persisted state.
func Restore(cfg Config, rs RestoreState) Segmenter {
	s := NewSegmenter(cfg)
	s.lastSeen = rs.LastSeen
	s.previous = cloneSession(rs.Previous)

	switch {
	case rs.OpenAFK != nil:
		s.state = StateAFK
		s.afk = cloneAFK(rs.OpenAFK)
		if s.afk.StartTime.After(s.lastSeen) {
			s.lastSeen = s.afk.StartTime
		}
	case rs.Open != nil:
		s.state = StateActive
		s.current = cloneSession(rs.Open)
		s.bridge = cloneAFK(rs.Bridge)
		if s.current.StartTime.After(s.lastSeen) {
			s.lastSeen = s.current.StartTime
		}
	}
	return s
}

// WithIDGenerator replaces the id source.
func (s Segmenter) WithIDGenerator(gen func() string) Segmenter {
	s.newID = gen
	return s
}

// State returns the current mode.
func (s Segmenter) State() State { return s.state }

// LastSeen returns the newest observed activity time.
func (s Segmenter) LastSeen() time.Time { return s.lastSeen }

// CurrentSessionID returns the open session id, if any.
func (s Segmenter) CurrentSessionID() (string, bool) {
	if s.current == nil {
		return "", false
	}
	return s.current.ID, true
}

// Current returns a copy of the open session.
func (s Segmenter) Current() *Session { return cloneSession(s.current) }

// OpenAFK returns a copy of the open AFK block.
func (s Segmenter) OpenAFK() *AFKBlock { return cloneAFK(s.afk) }

// Observe records activity at t.
func (s Segmenter) Observe(t time.Time) (Segmenter, []Transition, error) {
	if t.Before(s.lastSeen) {
		return s, nil, fmt.Errorf("%w: %s before %s", ErrStaleEvent, t.Format(time.RFC3339), s.lastSeen.Format(time.RFC3339))
	}

	next := s
	var out []Transition

	switch s.state {
	case StateActive:
		gap := t.Sub(s.lastSeen)
		switch {
		case gap > s.cfg.Timeout:
			out = next.goAFK(s.lastSeen, TriggerIdleTimeout, out)
			out = next.resume(t, out)
		case !s.sameDay(s.lastSeen, t):
			out = next.closeCurrent(s.lastSeen, out)
			if next.afk != nil {
				out = next.resume(t, out)
			} else {
				out = next.open(t, nil, out)
			}
		}
	case StateAFK:
		out = next.resume(t, out)
	}

	next.lastSeen = t
	return next, out, nil
}

// Tick checks for idleness at now. It never moves the clock.
func (s Segmenter) Tick(now time.Time) (Segmenter, []Transition) {
	if s.state != StateActive || now.Sub(s.lastSeen) <= s.cfg.Timeout {
		return s, nil
	}
	next := s
	out := next.goAFK(s.lastSeen, TriggerIdleTimeout, nil)
	return next, out
}

// Lock starts AFK at t because of an explicit signal. When the user was already
// idle past the timeout, the session ends at the last activity and the AFK block
// is recorded as an idle timeout.
func (s Segmenter) Lock(t time.Time, trigger TriggerType) (Segmenter, []Transition, error) {
	if !trigger.Valid() || trigger == TriggerIdleTimeout {
		return s, nil, fmt.Errorf("%w: lock trigger %q", ErrInvalidInput, trigger)
	}
	if t.Before(s.lastSeen) {
		return s, nil, fmt.Errorf("%w: %s before %s", ErrStaleEvent, t.Format(time.RFC3339), s.lastSeen.Format(time.RFC3339))
	}
	if s.state != StateActive {
		return s, nil, nil
	}
	next := s
	var out []Transition
	if t.Sub(s.lastSeen) > s.cfg.Timeout {
		out = next.goAFK(s.lastSeen, TriggerIdleTimeout, nil)
	} else {
		out = next.goAFK(t, trigger, nil)
	}
	next.lastSeen = t
	return next, out, nil
}

// goAFK closes the open session at at and makes sure an AFK block is open from there.
func (s *Segmenter) goAFK(at time.Time, trigger TriggerType, out []Transition) []Transition {
	out = s.closeCurrent(at, out)
	if s.afk != nil {
		// a dropped short session handed its AFK block back
		return out
	}
	block := &AFKBlock{ID: s.newID(), StartTime: at, TriggerType: trigger}
	s.afk = block
	return append(out, Transition{Kind: AFKStarted, AFK: cloneAFK(block)})
}

// resume ends any open AFK block at t and opens a session there.
func (s *Segmenter) resume(t time.Time, out []Transition) []Transition {
	var bridge *AFKBlock
	if s.afk != nil {
		ended := *s.afk
		end := t
		ended.EndTime = &end
		ended.DurationSeconds = int64(t.Sub(ended.StartTime) / time.Second)
		out = append(out, Transition{Kind: AFKEnded, AFK: cloneAFK(&ended)})
		bridge = &ended
		s.afk = nil
	}
	return s.open(t, bridge, out)
}

func (s *Segmenter) open(t time.Time, bridge *AFKBlock, out []Transition) []Transition {
	sess := &Session{ID: s.newID(), StartTime: t, CreatedAt: t}
	s.current = sess
	s.bridge = bridge
	s.state = StateActive
	return append(out, Transition{Kind: SessionOpened, Session: cloneSession(sess)})
}

// closeCurrent ends the open session at at, then merges or drops it when it is short.
func (s *Segmenter) closeCurrent(at time.Time, out []Transition) []Transition {
	if s.current == nil {
		return out
	}
	closed := *s.current
	end := at
	closed.EndTime = &end
	closed.DurationSeconds = int64(at.Sub(closed.StartTime) / time.Second)

	prev, bridge := s.previous, s.bridge
	s.current = nil
	s.bridge = nil
	s.state = StateAFK

	short := closed.Duration() < s.cfg.MinSession
	if !short || prev == nil || prev.EndTime == nil || bridge == nil || !s.sameDay(prev.StartTime, closed.StartTime) {
		s.previous = &closed
		return append(out, Transition{Kind: SessionClosed, Session: cloneSession(&closed)})
	}

	if bridge.Duration() <= s.cfg.RealBreak {
		target := *prev
		targetEnd := at
		target.EndTime = &targetEnd
		target.DurationSeconds = int64(at.Sub(target.StartTime) / time.Second)
		s.previous = &target
		return append(out, Transition{
			Kind:    SessionMerged,
			Session: cloneSession(&closed),
			Target:  cloneSession(&target),
			AFK:     cloneAFK(bridge),
		})
	}

	reopened := *bridge
	reopened.EndTime = nil
	reopened.DurationSeconds = 0
	s.afk = &reopened
	gap := &Gap{
		ID:               s.newID(),
		StartTime:        closed.StartTime,
		EndTime:          at,
		DroppedSessionID: closed.ID,
		AFKBlockID:       reopened.ID,
	}
	return append(out, Transition{
		Kind:    SessionDropped,
		Session: cloneSession(&closed),
		AFK:     cloneAFK(&reopened),
		Gap:     gap,
	})
}

func (s Segmenter) sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(s.cfg.Location).Date()
	by, bm, bd := b.In(s.cfg.Location).Date()
	return ay == by && am == bm && ad == bd
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.EndTime != nil {
		end := *s.EndTime
		c.EndTime = &end
	}
	return &c
}

func cloneAFK(b *AFKBlock) *AFKBlock {
	if b == nil {
		return nil
	}
	c := *b
	if b.EndTime != nil {
		end := *b.EndTime
		c.EndTime = &end
	}
	return &c
}
