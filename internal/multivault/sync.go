package multivault

import (
	"context"

	"github.com/roach88/multivault/internal/events"
	"github.com/roach88/multivault/internal/store"
)

// SyncConfig refetches every governed parameter from the authority and
// installs the result atomically. A failed fetch keeps the cached snapshot.
// It is allowed while paused so that an unpause can take effect.
func (e *Engine) SyncConfig(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, registry, err := e.fetch(ctx)
	if err != nil {
		e.log.Warnw("config sync failed, keeping cached snapshot", "error", err)
		return "", err
	}
	digest, err := events.ConfigDigest(snap.Canonical())
	if err != nil {
		return "", err
	}

	opID := e.opIDs.Generate()
	var published []events.Event
	err = e.store.Update(ctx, func(tx *store.Tx) error {
		journal := events.NewJournal(tx, opID)
		if err := journal.Emit(events.ConfigSynced(digest, snap.General.Paused)); err != nil {
			return err
		}
		published = journal.Events()
		return nil
	})
	if err != nil {
		e.log.Errorw("config sync failed to commit", "op_id", opID, "error", err)
		return "", err
	}

	e.snap, e.curves = snap, registry
	e.log.Infow("config synced", "op_id", opID, "digest", digest, "paused", snap.General.Paused, "curves", registry.Count())
	e.sink.Publish(ctx, published)
	return digest, nil
}
