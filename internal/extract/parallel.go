package extract

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/firscan/internal/normalize"
	"github.com/jackzampolin/firscan/internal/rules"
)

// ExtractAll extracts every document against the same rule set using up to
// parallelism workers (GOMAXPROCS when parallelism < 1). Results are in input
// order. The first error cancels the remaining work.
func ExtractAll(ctx context.Context, docs []normalize.Document, rs *rules.RuleSet, threshold float64, parallelism int) ([]*Result, error) {
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	results := make([]*Result, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := Extract(docs[i], rs, threshold)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
