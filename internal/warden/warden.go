// Package warden implements the Results Warden (C5): it reconciles recent
// run history into a candidate error set, hands that set to the Notifier
// Gateway, and prunes old history files.
package warden

import (
	"context"
	"fmt"

	"github.com/kreciklabs/krecik/internal/history"
	"github.com/kreciklabs/krecik/internal/notifier"
	"github.com/kreciklabs/krecik/internal/story"
)

// Default retention counts. The Warden acts only once at least ValidateCount
// runs exist; KeepCount is the retention ceiling applied afterward.
const (
	DefaultValidateCount = 3
	DefaultKeepCount     = 10
)

// Warden reconciles history into notifications.
type Warden struct {
	Store   *history.Store
	Gateway *notifier.Gateway
	Lock    Locker

	// ValidateCount is how many of the most recent runs are inspected for
	// errors. KeepCount is how many history files survive pruning.
	ValidateCount int
	KeepCount     int
}

// New returns a Warden with the default retention counts and an in-process
// lock. Override Lock for multi-replica deployments.
func New(store *history.Store, gateway *notifier.Gateway) *Warden {
	return &Warden{
		Store:         store,
		Gateway:       gateway,
		Lock:          NewLocalLock(),
		ValidateCount: DefaultValidateCount,
		KeepCount:     DefaultKeepCount,
	}
}

// Run performs one reconciliation pass:
//
//  1. Load the ValidateCount most recent history files. If fewer exist,
//     return with no side effects.
//  2. Extract only the error-bearing Stories from each of those runs.
//  3. Concatenate the error sets in run order: newest, then the run before
//     it, then the one before that — no deduplication at this stage.
//  4. Hand the concatenated set to the Notifier Gateway.
//  5. Prune history files beyond KeepCount most recent.
//
// Pruning happens even when notification fails, since retention is a
// storage concern independent of delivery.
func (w *Warden) Run(ctx context.Context) error {
	validateCount := w.ValidateCount
	if validateCount <= 0 {
		validateCount = DefaultValidateCount
	}
	keepCount := w.KeepCount
	if keepCount <= 0 {
		keepCount = DefaultKeepCount
	}

	release, err := w.Lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire warden lock: %w", err)
	}
	defer release()

	paths, err := w.Store.List()
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if len(paths) < validateCount {
		return nil
	}

	recent := paths[len(paths)-validateCount:]
	errs := make([]story.Unexpected, 0)
	for i := len(recent) - 1; i >= 0; i-- {
		for _, s := range w.Store.Read(recent[i]) {
			if s.IsError() {
				errs = append(errs, *s.Error)
			}
		}
	}

	notifyErr := w.Gateway.Notify(ctx, errs)

	if _, pruneErr := w.Store.Prune(keepCount); pruneErr != nil {
		if notifyErr != nil {
			return fmt.Errorf("notify: %v; prune history: %w", notifyErr, pruneErr)
		}
		return fmt.Errorf("prune history: %w", pruneErr)
	}

	if notifyErr != nil {
		return fmt.Errorf("notify: %w", notifyErr)
	}
	return nil
}
