package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/dedup"
	"github.com/hmahadik/traq/internal/domain/session"
	"github.com/hmahadik/traq/internal/repository"
)

// Outcome reports what happened to one observation.
type Outcome struct {
	Ref         *activity.Ref            `json:"ref,omitempty"`
	Stored      bool                     `json:"stored"`
	Reason      dedup.Reason             `json:"reason,omitempty"`
	SessionID   string                   `json:"session_id,omitempty"`
	ProjectID   string                   `json:"project_id,omitempty"`
	Confidence  float64                  `json:"confidence,omitempty"`
	Transitions []session.TransitionKind `json:"transitions,omitempty"`
}

// Pipeline runs dedup, segmentation and assignment for each observation and commits
// the result atomically. In-memory state advances only after a successful commit.
type Pipeline struct {
	mu      sync.Mutex
	repo    Repository
	dedup   *dedup.Deduplicator
	streams *dedup.State
	seg     session.Segmenter
	engine  Suggester
	logger  *slog.Logger
}

// NewPipeline creates a pipeline starting from seg. A nil engine disables inline assignment.
func NewPipeline(repo Repository, d *dedup.Deduplicator, seg session.Segmenter, engine Suggester, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		repo:    repo,
		dedup:   d,
		streams: dedup.NewState(),
		seg:     seg,
		engine:  engine,
		logger:  logger,
	}
}

// Restore reloads the last stored screenshot of every stream.
func (p *Pipeline) Restore(ctx context.Context) error {
	last, err := p.repo.LastStoredScreenshots(ctx)
	if err != nil {
		return fmt.Errorf("loading last screenshots: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for stream, prev := range last {
		p.streams.Record(stream, prev)
	}
	return nil
}

// Segmenter returns the committed segmenter state.
func (p *Pipeline) Segmenter() session.Segmenter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seg
}

// Process ingests one observation.
func (p *Pipeline) Process(ctx context.Context, obs Observation) (*Outcome, error) {
	obs, err := Normalize(obs)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if obs.Lock != nil {
		next, transitions, err := p.seg.Lock(obs.Lock.Timestamp, obs.Lock.Trigger)
		if err != nil {
			return nil, err
		}
		c := &Commit{Transitions: transitions, LastSeen: next.LastSeen()}
		if err := p.repo.Commit(ctx, c); err != nil {
			return nil, fmt.Errorf("committing lock: %w", err)
		}
		p.seg = next
		return &Outcome{Transitions: kinds(transitions)}, nil
	}

	ts := obs.Timestamp()
	next, transitions, err := p.seg.Observe(ts)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Stored: true, Transitions: kinds(transitions)}
	var decision dedup.Decision
	if obs.Screenshot != nil {
		prev, _ := p.streams.Lookup(obs.Stream())
		decision = p.dedup.ShouldStore(dedup.Candidate{
			Stream:    obs.Stream(),
			Timestamp: ts,
			ImageRef:  obs.Screenshot.ImageRef,
			Hash:      obs.Screenshot.PerceptualHash,
		}, prev)
		out.Stored = decision.Store
		out.Reason = decision.Reason
		obs.Screenshot.PerceptualHash = decision.Hash
	}

	c := &Commit{Transitions: transitions, LastSeen: next.LastSeen()}
	var linkage activity.Linkage
	if out.Stored {
		row, ok := obs.Row()
		if !ok {
			return nil, fmt.Errorf("%w: no payload", ErrInvalidObservation)
		}
		ref := row.Ref
		out.Ref = &ref

		if sid, ok := next.CurrentSessionID(); ok {
			linkage.SessionID = &sid
			out.SessionID = sid
		}
		if w := p.suggest(ctx, row, ts); w != nil {
			source := w.Source
			linkage.ProjectID = w.ProjectID
			linkage.ProjectConfidence = w.Confidence
			linkage.ProjectSource = &source
			c.Assignment = w
			out.ProjectID = *w.ProjectID
			out.Confidence = *w.Confidence
		}
		setLinkage(&row, linkage)
		c.Row = &row
	}

	err = p.repo.Commit(ctx, c)
	if err != nil && c.Assignment != nil && errors.Is(err, repository.ErrForeignKeyViolation) {
		// the suggested project was deleted after the candidates were cached
		p.logger.Warn("suggested project is gone, storing unassigned",
			"ref", c.Row.Ref.ID, "type", c.Row.Ref.Type, "project_id", out.ProjectID)
		p.engine.Invalidate()
		c.Assignment = nil
		setLinkage(c.Row, activity.Linkage{SessionID: linkage.SessionID})
		out.ProjectID, out.Confidence = "", 0
		err = p.repo.Commit(ctx, c)
	}
	if err != nil {
		return nil, fmt.Errorf("committing %s: %w", obs.Kind(), err)
	}
	p.seg = next
	// an unhashed capture still becomes the comparison point of its stream
	if obs.Screenshot != nil && out.Stored {
		p.streams.Record(obs.Stream(), dedup.Previous{Hash: decision.Hash, Timestamp: ts})
	}

	p.logger.Debug("observation ingested",
		"kind", obs.Kind(),
		"timestamp", ts,
		"stored", out.Stored,
		"reason", out.Reason,
		"session_id", out.SessionID,
		"project_id", out.ProjectID,
		"transitions", len(transitions),
	)
	return out, nil
}

// suggest returns the automatic write for row, or nil on no match.
// Assignment problems never block ingest.
func (p *Pipeline) suggest(ctx context.Context, row activity.Row, at time.Time) *assignment.Write {
	if p.engine == nil {
		return nil
	}
	res, ok, err := p.engine.Suggest(ctx, assignment.FromRow(row))
	if err != nil {
		p.logger.Warn("inline assignment failed", "ref", row.Ref.ID, "type", row.Ref.Type, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	w := assignment.AutoWrite(row.Ref, at, res, activity.SourceAuto)
	return &w
}

// Tick closes the open session when the user has been idle past the timeout.
func (p *Pipeline) Tick(ctx context.Context, now time.Time) ([]session.TransitionKind, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next, transitions := p.seg.Tick(norm(now))
	if len(transitions) == 0 {
		return nil, nil
	}
	if err := p.repo.Commit(ctx, &Commit{Transitions: transitions, LastSeen: next.LastSeen()}); err != nil {
		return nil, fmt.Errorf("committing idle tick: %w", err)
	}
	p.seg = next
	p.logger.Info("user went idle", "last_seen", next.LastSeen(), "transitions", len(transitions))
	return kinds(transitions), nil
}

func kinds(ts []session.Transition) []session.TransitionKind {
	if len(ts) == 0 {
		return nil
	}
	out := make([]session.TransitionKind, len(ts))
	for i, t := range ts {
		out[i] = t.Kind
	}
	return out
}
