package resolver

import (
	"context"
	"encoding/json"
	"fmt"

	"relocation/internal/keys"
	"relocation/internal/logger"
	"relocation/internal/models"
)

// HistoryLimit is the number of lookups kept in the history log.
const HistoryLimit = 10

// loadCache reads the cache mapping. A missing or unreadable entry is an
// empty cache.
func (r *Resolver) loadCache(ctx context.Context) map[string]models.CacheRecord {
	cache := make(map[string]models.CacheRecord)
	data, ok, err := r.store.Get(ctx, keys.Cache)
	if err != nil {
		logger.GetLogger().Warnf("Reading lookup cache failed, treating as empty: %v", err)
		return cache
	}
	if !ok {
		return cache
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		logger.GetLogger().Warnf("Lookup cache is not valid JSON, treating as empty: %v", err)
		return make(map[string]models.CacheRecord)
	}
	return cache
}

func (r *Resolver) cached(ctx context.Context, key string) (models.CacheRecord, bool) {
	rec, ok := r.loadCache(ctx)[key]
	return rec, ok
}

// loadHistory reads the history log, oldest first.
func (r *Resolver) loadHistory(ctx context.Context) []models.HistoryEntry {
	data, ok, err := r.store.Get(ctx, keys.History)
	if err != nil {
		logger.GetLogger().Warnf("Reading lookup history failed, treating as empty: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	var history []models.HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		logger.GetLogger().Warnf("Lookup history is not valid JSON, treating as empty: %v", err)
		return nil
	}
	return history
}

// record stores rec under its key and appends a history entry. The two
// read-modify-write cycles are serialized within this resolver only; other
// processes sharing the store can still overwrite each other.
func (r *Resolver) record(ctx context.Context, rec models.CacheRecord) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	cache := r.loadCache(ctx)
	cache[rec.Key] = rec
	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("encode lookup cache: %w", err)
	}
	if err := r.store.Set(ctx, keys.Cache, data); err != nil {
		return fmt.Errorf("write lookup cache: %w", err)
	}

	history := append(r.loadHistory(ctx), models.NewHistoryEntry(r.now(), rec.Key, rec.Sites))
	if over := len(history) - HistoryLimit; over > 0 {
		history = history[over:]
	}
	data, err = json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode lookup history: %w", err)
	}
	if err := r.store.Set(ctx, keys.History, data); err != nil {
		return fmt.Errorf("write lookup history: %w", err)
	}
	return nil
}

// Cache returns every cached record by location key.
func (r *Resolver) Cache(ctx context.Context) map[string]models.CacheRecord {
	return r.loadCache(ctx)
}

// History returns the recorded lookups, oldest first.
func (r *Resolver) History(ctx context.Context) []models.HistoryEntry {
	return r.loadHistory(ctx)
}
