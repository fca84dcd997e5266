package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hmahadik/traq/internal/domain/project"
)

type countingProjects struct {
	Projects
	loads int
}

func (p *countingProjects) Candidates(context.Context) ([]project.Candidate, error) {
	p.loads++
	return []project.Candidate{{Project: project.Project{ID: "p1"}}}, nil
}

func TestCandidateCache(t *testing.T) {
	ctx := context.Background()
	src := &countingProjects{}
	c := newCandidateCache(src, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		items, err := c.get(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
	}
	require.Equal(t, 1, src.loads)

	c.invalidate()
	_, err := c.get(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, src.loads)

	time.Sleep(80 * time.Millisecond)
	_, err = c.get(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, src.loads)
}

func TestCandidateCache_NoTTLAlwaysReloads(t *testing.T) {
	ctx := context.Background()
	src := &countingProjects{}
	c := newCandidateCache(src, 0)

	for i := 0; i < 3; i++ {
		_, err := c.get(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 3, src.loads)
	c.invalidate()
}
