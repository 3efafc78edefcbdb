package rewriting

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jonathan/cv-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingGateway waits for release or cancellation before answering
type blockingGateway struct {
	started chan string
	release chan struct{}
}

func (g *blockingGateway) Rewrite(ctx context.Context, text, _ string) string {
	g.started <- text
	select {
	case <-g.release:
		return strings.ToUpper(text)
	case <-ctx.Done():
		return text
	}
}

type upperGateway struct{}

func (upperGateway) Rewrite(_ context.Context, text, _ string) string { return strings.ToUpper(text) }

func TestSequencer_LatestWins(t *testing.T) {
	gw := &blockingGateway{started: make(chan string, 2), release: make(chan struct{})}
	seq := NewSequencer(gw)

	var wg sync.WaitGroup
	var firstOut string
	var firstCurrent bool

	wg.Add(1)
	go func() {
		defer wg.Done()
		firstOut, firstCurrent = seq.Rewrite(context.Background(), "exp-1", "ancien", types.FieldExperience)
	}()
	require.Equal(t, "ancien", <-gw.started)

	done := make(chan struct{})
	var secondOut string
	var secondCurrent bool
	go func() {
		defer close(done)
		secondOut, secondCurrent = seq.Rewrite(context.Background(), "exp-1", "nouveau", types.FieldExperience)
	}()
	require.Equal(t, "nouveau", <-gw.started)

	wg.Wait()
	assert.False(t, firstCurrent)
	assert.Equal(t, "ancien", firstOut)

	close(gw.release)
	<-done
	assert.True(t, secondCurrent)
	assert.Equal(t, "NOUVEAU", secondOut)
	assert.Zero(t, seq.Pending())
}

func TestSequencer_IndependentKeys(t *testing.T) {
	seq := NewSequencer(upperGateway{})

	a, okA := seq.Rewrite(context.Background(), "a", "un", types.FieldBody)
	b, okB := seq.Rewrite(context.Background(), "b", "deux", types.FieldBody)

	assert.True(t, okA)
	assert.True(t, okB)
	assert.Equal(t, "UN", a)
	assert.Equal(t, "DEUX", b)
}
