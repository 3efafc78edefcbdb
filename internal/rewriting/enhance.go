package rewriting

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-builder/internal/types"
)

// maxParallelRewrites bounds concurrent calls to the gateway for one document
const maxParallelRewrites = 4

// EnhanceDocument returns a copy of doc whose free-text fields went through gateway.
// doc itself is never modified. Fields the gateway cannot rewrite keep their text.
func EnhanceDocument(ctx context.Context, gateway Gateway, doc *types.DocumentData) *types.DocumentData {
	out := doc.Clone()
	fields := out.TextFields()
	if len(fields) == 0 {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRewrites)
	for _, f := range fields {
		g.Go(func() error {
			*f.Value = gateway.Rewrite(gctx, *f.Value, f.Tag)
			return nil
		})
	}
	_ = g.Wait()

	return out
}
