// Package dedup decides whether a new screen capture is worth keeping.
//
// A capture is redundant when its difference hash is within Threshold bits of
// the last stored capture of the same stream and it arrived inside Window.
package dedup

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/corona10/goimagehash"
)

// Config controls duplicate detection.
type Config struct {
	Threshold int
	Window    time.Duration
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{Threshold: 3, Window: 10 * time.Minute}
}

// Reason explains a Decision.
type Reason string

const (
	ReasonFirst      Reason = "first_in_stream"
	ReasonDistinct   Reason = "distinct"
	ReasonStale      Reason = "outside_window"
	ReasonDuplicate  Reason = "duplicate"
	ReasonHashFailed Reason = "hash_failed"
)

// Candidate is a capture awaiting a keep/discard decision.
// Hash may be supplied by the collector; otherwise it is computed from ImageRef.
type Candidate struct {
	Stream    string
	Timestamp time.Time
	ImageRef  string
	Hash      string
}

// Previous is the last stored capture of a stream.
type Previous struct {
	Hash      string
	Timestamp time.Time
}

// Decision is the outcome for one candidate.
type Decision struct {
	Store    bool
	Hash     string
	Distance int
	Reason   Reason
}

// Hasher computes a perceptual hash for a stored image.
type Hasher interface {
	Hash(imageRef string) (string, error)
}

// Deduplicator applies the hash-distance rule.
type Deduplicator struct {
	cfg    Config
	hasher Hasher
	logger *slog.Logger
}

// New creates a Deduplicator. A nil hasher means candidates must carry their own hash.
func New(cfg Config, hasher Hasher, logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{cfg: cfg, hasher: hasher, logger: logger}
}

// ShouldStore decides whether c is kept. Any hashing problem keeps the capture.
func (d *Deduplicator) ShouldStore(c Candidate, prev *Previous) Decision {
	hash := c.Hash
	if hash == "" {
		if d.hasher == nil {
			return Decision{Store: true, Distance: -1, Reason: ReasonHashFailed}
		}
		h, err := d.hasher.Hash(c.ImageRef)
		if err != nil {
			d.logger.Warn("screenshot hash failed, storing anyway", "stream", c.Stream, "image_ref", c.ImageRef, "error", err)
			return Decision{Store: true, Distance: -1, Reason: ReasonHashFailed}
		}
		hash = h
	}

	if prev == nil || prev.Hash == "" {
		return Decision{Store: true, Hash: hash, Distance: -1, Reason: ReasonFirst}
	}

	gap := c.Timestamp.Sub(prev.Timestamp)
	if gap < 0 || gap >= d.cfg.Window {
		return Decision{Store: true, Hash: hash, Distance: -1, Reason: ReasonStale}
	}

	dist, err := Distance(hash, prev.Hash)
	if err != nil {
		d.logger.Warn("screenshot hash compare failed, storing anyway", "stream", c.Stream, "error", err)
		return Decision{Store: true, Hash: hash, Distance: -1, Reason: ReasonHashFailed}
	}
	if dist <= d.cfg.Threshold {
		return Decision{Store: false, Hash: hash, Distance: dist, Reason: ReasonDuplicate}
	}
	return Decision{Store: true, Hash: hash, Distance: dist, Reason: ReasonDistinct}
}

// Distance returns the Hamming distance between two encoded hashes.
func Distance(a, b string) (int, error) {
	h1, err := goimagehash.ImageHashFromString(a)
	if err != nil {
		return -1, fmt.Errorf("failed to parse hash: %w", err)
	}
	h2, err := goimagehash.ImageHashFromString(b)
	if err != nil {
		return -1, fmt.Errorf("failed to parse hash: %w", err)
	}
	return h1.Distance(h2)
}

// State tracks the last stored capture per stream.
// It is owned by the ingest runner goroutine.
type State struct {
	last map[string]Previous
}

// NewState returns an empty State.
func NewState() *State {
	return &State{last: make(map[string]Previous)}
}

// Lookup returns the last stored capture of stream, if known.
func (s *State) Lookup(stream string) (*Previous, bool) {
	p, ok := s.last[stream]
	if !ok {
		return nil, false
	}
	return &p, true
}

// Record remembers a capture that was committed.
func (s *State) Record(stream string, p Previous) {
	s.last[stream] = p
}
