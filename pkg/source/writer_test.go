package source

import (
	"context"
	"sync"
)

// fakeWriter records persistence calls for adapter tests.
type fakeWriter struct {
	mu            sync.Mutex
	upserts       []Trend
	inserts       []Trend
	scopedDeletes []SourceType
	sourceDeletes []SourceType
	upsertErr     error
	insertErr     error
	deleteErr     error
}

func (w *fakeWriter) Upsert(ctx context.Context, t *Trend) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.upsertErr != nil {
		return w.upsertErr
	}
	w.upserts = append(w.upserts, *t)
	return nil
}

func (w *fakeWriter) InsertMany(ctx context.Context, trends []Trend) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.insertErr != nil {
		return w.insertErr
	}
	w.inserts = append(w.inserts, trends...)
	return nil
}

func (w *fakeWriter) DeleteScoped(ctx context.Context, src SourceType) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.deleteErr != nil {
		return w.deleteErr
	}
	w.scopedDeletes = append(w.scopedDeletes, src)
	return nil
}

func (w *fakeWriter) DeleteBySource(ctx context.Context, src SourceType) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.deleteErr != nil {
		return w.deleteErr
	}
	w.sourceDeletes = append(w.sourceDeletes, src)
	return nil
}
