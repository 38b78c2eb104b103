// Package ocr defines the text recognition capability used to read payment
// screenshots. Engines are injected so recognition can run in-process or be
// delegated elsewhere without touching the checkout flow.
package ocr

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Extractor turns an image into plain text.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, image []byte) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

type limited struct {
	next Extractor
	sem  *semaphore.Weighted
}

// Limit bounds the number of recognitions running at once. Recognition is
// CPU bound, so callers beyond n wait (or give up when ctx ends).
func Limit(next Extractor, n int) Extractor {
	if n <= 0 {
		n = 1
	}
	return &limited{next: next, sem: semaphore.NewWeighted(int64(n))}
}

func (l *limited) Extract(ctx context.Context, image []byte) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer l.sem.Release(1)
	return l.next.Extract(ctx, image)
}
