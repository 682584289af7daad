package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Shadow describes one shadow snapshot of a primary key
type Shadow struct {
	Key       string
	Timestamp time.Time
}

// ShadowWriter is the backup-on-write layer. Before every primary write it
// copies the previous raw value to a timestamped shadow key and prunes old
// shadows down to the configured cap. This is a best-effort safety net, not
// a two-phase commit: a crash between snapshot and primary write leaves an
// extra shadow, which is harmless; a crash during the primary write leaves
// a corrupt primary, which the read path repairs from a shadow.
type ShadowWriter struct {
	kv     *Adapter
	cap    int
	logger *zap.Logger

	mu         sync.Mutex
	lastMillis int64
}

// NewShadowWriter creates a backup-on-write layer over the adapter
func NewShadowWriter(kv *Adapter, shadowCap int, logger *zap.Logger) *ShadowWriter {
	if shadowCap <= 0 {
		shadowCap = 3
	}
	return &ShadowWriter{
		kv:     kv,
		cap:    shadowCap,
		logger: logger,
	}
}

// Adapter exposes the underlying key-value adapter for reads that bypass
// the shadow machinery
func (w *ShadowWriter) Adapter() *Adapter {
	return w.kv
}

// Write snapshots the current value of the primary key, prunes excess
// shadows and then performs the primary write
func (w *ShadowWriter) Write(ctx context.Context, primaryKey string, value interface{}) error {
	previous, found, err := w.kv.GetRaw(ctx, primaryKey)
	if err != nil {
		return err
	}

	if found {
		shadowKey := ShadowKey(primaryKey, w.nextInstant())
		if err := w.kv.SetRaw(ctx, shadowKey, previous); err != nil {
			// Snapshot failure must not block the write itself
			w.logger.Warn("Failed to snapshot previous value",
				zap.String("key", primaryKey),
				zap.Error(err),
			)
		} else if _, err := w.Prune(ctx, primaryKey, w.cap); err != nil {
			w.logger.Warn("Failed to prune shadow snapshots",
				zap.String("key", primaryKey),
				zap.Error(err),
			)
		}
	}

	return w.kv.Set(ctx, primaryKey, value)
}

// WriteRaw is Write for pre-serialized text, used when restoring a shadow
// verbatim as the new primary value
func (w *ShadowWriter) WriteRaw(ctx context.Context, primaryKey, raw string) error {
	return w.kv.SetRaw(ctx, primaryKey, raw)
}

// Shadows lists the shadow snapshots of a primary key, newest first
func (w *ShadowWriter) Shadows(ctx context.Context, primaryKey string) ([]Shadow, error) {
	keys, err := w.kv.Keys(ctx)
	if err != nil {
		return nil, err
	}

	var shadows []Shadow
	for _, key := range keys {
		if ts, ok := ShadowTimestamp(primaryKey, key); ok {
			shadows = append(shadows, Shadow{Key: key, Timestamp: ts})
		}
	}

	sort.Slice(shadows, func(i, j int) bool {
		return shadows[i].Timestamp.After(shadows[j].Timestamp)
	})
	return shadows, nil
}

// Prune deletes the oldest shadows of a primary key beyond the keep count
// and returns how many were removed
func (w *ShadowWriter) Prune(ctx context.Context, primaryKey string, keep int) (int, error) {
	shadows, err := w.Shadows(ctx, primaryKey)
	if err != nil {
		return 0, err
	}
	if len(shadows) <= keep {
		return 0, nil
	}

	excess := shadows[keep:]
	keys := make([]string, len(excess))
	for i, shadow := range excess {
		keys[i] = shadow.Key
	}
	if err := w.kv.MultiRemove(ctx, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// RemoveAll deletes every shadow of a primary key
func (w *ShadowWriter) RemoveAll(ctx context.Context, primaryKey string) error {
	shadows, err := w.Shadows(ctx, primaryKey)
	if err != nil {
		return err
	}
	keys := make([]string, len(shadows))
	for i, shadow := range shadows {
		keys[i] = shadow.Key
	}
	return w.kv.MultiRemove(ctx, keys)
}

// nextInstant returns a strictly increasing timestamp so that consecutive
// writes within the same millisecond cannot collide on a shadow key
func (w *ShadowWriter) nextInstant() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	millis := time.Now().UnixMilli()
	if millis <= w.lastMillis {
		millis = w.lastMillis + 1
	}
	w.lastMillis = millis
	return time.UnixMilli(millis)
}
