package assignment

import (
	"fmt"
	"sort"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/project"
)

// Result is the best project for a context.
type Result struct {
	ProjectID   string          `json:"project_id"`
	ProjectName string          `json:"project_name"`
	Color       string          `json:"color"`
	Confidence  float64         `json:"confidence"`
	Score       float64         `json:"score"`
	Source      activity.Source `json:"source"`
	Reason      string          `json:"reason"`
	// PatternIDs lists every pattern of the winner that matched.
	PatternIDs []string `json:"pattern_ids"`
}

// Scorer ranks candidate projects against a context.
type Scorer struct {
	Ceiling       float64
	MinConfidence float64
}

type projectScore struct {
	candidate  *project.Candidate
	score      float64
	maxWeight  float64
	lastUsed   time.Time
	patternIDs []string
	reason     string
}

// Assign returns the winning project, or false when nothing clears the confidence floor.
// The result does not depend on candidate or pattern order.
func (s Scorer) Assign(ctx Context, candidates []project.Candidate) (Result, bool) {
	var best *projectScore
	for i := range candidates {
		ps := scoreCandidate(ctx, &candidates[i])
		if ps == nil {
			continue
		}
		if best == nil || better(ps, best) {
			best = ps
		}
	}
	if best == nil {
		return Result{}, false
	}

	confidence := s.confidence(best.score)
	if confidence < s.MinConfidence {
		return Result{}, false
	}
	return Result{
		ProjectID:   best.candidate.Project.ID,
		ProjectName: best.candidate.Project.Name,
		Color:       best.candidate.Project.Color,
		Confidence:  confidence,
		Score:       best.score,
		Source:      activity.SourceAuto,
		Reason:      best.reason,
		PatternIDs:  best.patternIDs,
	}, true
}

func (s Scorer) confidence(score float64) float64 {
	ceiling := s.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	c := score / ceiling
	if c > 1 {
		return 1
	}
	if c < 0 {
		return 0
	}
	return c
}

func scoreCandidate(ctx Context, c *project.Candidate) *projectScore {
	matchers := make([]*project.Matcher, len(c.Matchers))
	copy(matchers, c.Matchers)
	sort.Slice(matchers, func(i, j int) bool { return matchers[i].Pattern.ID < matchers[j].Pattern.ID })

	ps := &projectScore{candidate: c}
	var reasonWeight float64
	for _, m := range matchers {
		if !matchesAny(m, ctx.Fields(m.Pattern.PatternType)) {
			continue
		}
		w := m.Pattern.Weight
		ps.score += w
		ps.patternIDs = append(ps.patternIDs, m.Pattern.ID)
		if w > ps.maxWeight {
			ps.maxWeight = w
		}
		if m.Pattern.LastUsedAt != nil && m.Pattern.LastUsedAt.After(ps.lastUsed) {
			ps.lastUsed = *m.Pattern.LastUsedAt
		}
		if w > reasonWeight {
			reasonWeight = w
			ps.reason = fmt.Sprintf("matched %s %s %q", m.Pattern.PatternType, m.Pattern.MatchType, m.Pattern.PatternValue)
		}
	}
	if ps.score <= 0 {
		return nil
	}
	return ps
}

func matchesAny(m *project.Matcher, values []string) bool {
	for _, v := range values {
		if m.Match(v) {
			return true
		}
	}
	return false
}

// better orders by score, strongest single pattern, most recent use, then lowest project id.
func better(a, b *projectScore) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.maxWeight != b.maxWeight {
		return a.maxWeight > b.maxWeight
	}
	if !a.lastUsed.Equal(b.lastUsed) {
		return a.lastUsed.After(b.lastUsed)
	}
	return a.candidate.Project.ID < b.candidate.Project.ID
}
