package hfit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ChunkConfig configures a ChunkedProvider.
type ChunkConfig struct {
	Size    int // Texts per backend request (default 50)
	Workers int // Concurrent requests (default 4)
}

// ChunkedProvider splits one large request into fixed-size chunks sent
// concurrently. Results are stitched back in input order, so callers still
// see a single call with one result per text.
type ChunkedProvider struct {
	provider AIProvider
	size     int
	workers  int
}

// NewChunkedProvider wraps provider with chunking.
func NewChunkedProvider(provider AIProvider, cfg ChunkConfig) *ChunkedProvider {
	if cfg.Size <= 0 {
		cfg.Size = 50
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &ChunkedProvider{provider: provider, size: cfg.Size, workers: cfg.Workers}
}

// Translate implements AIProvider. A chunk that fails keeps its source
// texts; the call fails only when every chunk failed.
func (p *ChunkedProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) <= p.size {
		return p.provider.Translate(ctx, req)
	}

	out := make([]string, len(req.Texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	var chunks, failed atomic.Int32
	var errMu sync.Mutex
	var lastErr error

	for start := 0; start < len(req.Texts); start += p.size {
		end := min(start+p.size, len(req.Texts))
		sub := req
		sub.Texts = req.Texts[start:end]
		if len(req.TextContexts) >= end {
			sub.TextContexts = req.TextContexts[start:end]
		} else {
			sub.TextContexts = nil
		}

		chunks.Add(1)
		g.Go(func() error {
			results, err := p.provider.Translate(gctx, sub)
			if err == nil && len(results) != len(sub.Texts) {
				err = &CountMismatchError{Expected: len(sub.Texts), Got: len(results)}
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				errMu.Lock()
				lastErr = err
				errMu.Unlock()
				log.Warn().Err(err).Int("start", start).Int("size", len(sub.Texts)).
					Msg("Chunk translation failed, keeping source")
				copy(out[start:end], sub.Texts)
				return nil
			}
			copy(out[start:end], results)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, &ProviderError{Message: "chunked batch cancelled", Cause: err}
	}
	if failed.Load() == chunks.Load() {
		return nil, lastErr
	}
	return out, nil
}
