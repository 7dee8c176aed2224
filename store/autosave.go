package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"seo_article_studio/model"
)

// Autosaver mirrors an in-memory draft into a Store behind a debounce
// window: a write fires only after a quiet period following the last
// mutation, collapsing bursts of edits into one write. The snapshot is read
// at flush time, never captured at schedule time, so a stale write can never
// land after a newer one.
type Autosaver struct {
	store    Store
	snapshot func() model.Draft
	window   time.Duration
	log      zerolog.Logger

	schedMu sync.Mutex
	timer   *time.Timer
	closed  bool

	writeMu  sync.Mutex
	lastHash uint64
}

// NewAutosaver wires a snapshot source to a store. Notify is cheap and safe
// to call from under the draft owner's lock.
func NewAutosaver(store Store, snapshot func() model.Draft, window time.Duration, log zerolog.Logger) *Autosaver {
	return &Autosaver{
		store:    store,
		snapshot: snapshot,
		window:   window,
		log:      log.With().Str("component", "autosaver").Logger(),
	}
}

// Notify schedules a flush at now+window; any earlier pending flush is
// cancelled and rescheduled.
func (a *Autosaver) Notify() {
	a.schedMu.Lock()
	defer a.schedMu.Unlock()
	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.window, func() {
		if err := a.Flush(context.Background()); err != nil {
			// In-memory state stays authoritative; the next mutation
			// reschedules and retries.
			a.log.Warn().Err(err).Msg("autosave failed")
		}
	})
}

// Flush writes the current snapshot now, skipping the write when the encoded
// content matches the last successful save. Flushes are serialized, which
// totally orders persistence writes per draft.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	draft := a.snapshot()
	if draft.ID == "" {
		return nil
	}
	draft.UpdatedAt = time.Time{} // stamped by the store, excluded from the hash
	encoded, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	hash := xxh3.Hash(encoded)
	if hash == a.lastHash {
		return nil
	}
	if err := a.store.Upsert(ctx, draft); err != nil {
		return err
	}
	a.lastHash = hash
	return nil
}

// MarkSaved primes the dedupe hash from an already-persisted draft, so
// opening a draft does not immediately rewrite it.
func (a *Autosaver) MarkSaved(draft model.Draft) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	draft.UpdatedAt = time.Time{}
	if encoded, err := json.Marshal(draft); err == nil {
		a.lastHash = xxh3.Hash(encoded)
	}
}

// Close cancels any pending timer and drains unsaved state synchronously.
func (a *Autosaver) Close(ctx context.Context) error {
	a.schedMu.Lock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.schedMu.Unlock()
	return a.Flush(ctx)
}
