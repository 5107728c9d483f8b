package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"goflare.io/glossa/internal/models"
)

// BatchResult is the outcome of one fragment of a batch.
type BatchResult struct {
	Result *models.Result
	Err    error
}

// TranslateBatch translates every text concurrently, bounded by the
// configured batch concurrency. Results keep the input order and one
// failing fragment does not cancel the others.
func (o *Orchestrator) TranslateBatch(ctx context.Context, texts []string, opts models.Options) []BatchResult {
	out := make([]BatchResult, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.BatchConcurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			res, err := o.Translate(gctx, text, opts)
			out[i] = BatchResult{Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
