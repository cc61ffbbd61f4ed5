// Package cache implements the two-tier result store: a bounded in-memory
// map in front of a durable buntdb file. Reads go memory → durable → miss,
// and durable hits are promoted back into the memory tier.
package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/buntdb"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
)

// Entry is a cached analysis result with its bookkeeping.
type Entry struct {
	Key            string          `json:"key"`
	Value          analysis.Result `json:"value"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	AccessCount    int64           `json:"access_count"`
	LastAccessedAt time.Time       `json:"last_accessed_at"`
}

func (e *Entry) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Stats reports cache occupancy and reuse intensity.
type Stats struct {
	MemorySize     int     `json:"memory_size"`
	PersistentSize int     `json:"persistent_size"`
	HitRate        float64 `json:"hit_rate"`
}

// Manager handles all cache operations. Get never fails: any storage error
// degrades to a miss.
type Manager struct {
	db       *buntdb.DB
	logger   zerolog.Logger
	capacity int

	mu     sync.Mutex
	memory map[string]*Entry
}

// NewManager opens the durable store under cacheDir and prepares the
// memory tier with the given capacity.
func NewManager(cacheDir string, capacity int, logger zerolog.Logger) (*Manager, error) {
	dbPath := fmt.Sprintf("%s/finlens.db", cacheDir)

	db, err := buntdb.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Secondary access paths for range cleanup.
	if err := db.CreateIndex("created_at", "*", buntdb.IndexJSON("created_at")); err != nil && err != buntdb.ErrIndexExists {
		return nil, fmt.Errorf("failed to create created_at index: %w", err)
	}
	if err := db.CreateIndex("expires_at", "*", buntdb.IndexJSON("expires_at")); err != nil && err != buntdb.ErrIndexExists {
		return nil, fmt.Errorf("failed to create expires_at index: %w", err)
	}

	if capacity < 1 {
		capacity = 1
	}

	m := &Manager{
		db:       db,
		logger:   logger,
		capacity: capacity,
		memory:   make(map[string]*Entry),
	}

	logger.Info().Str("path", dbPath).Int("memory_capacity", capacity).Msg("Cache manager initialized")
	return m, nil
}

// Get returns the cached result for key, or nil on a miss. Expired entries
// are purged lazily; storage errors are logged and treated as misses.
func (m *Manager) Get(key string) *analysis.Result {
	now := time.Now()

	m.mu.Lock()
	if entry, ok := m.memory[key]; ok {
		if entry.expired(now) {
			delete(m.memory, key)
			m.mu.Unlock()
			m.deleteDurable(key)
			return nil
		}
		entry.AccessCount++
		entry.LastAccessedAt = now
		value := entry.Value
		m.mu.Unlock()
		return &value
	}
	m.mu.Unlock()

	entry, err := m.getDurable(key)
	if err != nil {
		if err != buntdb.ErrNotFound {
			m.logger.Error().Err(err).Str("key", key).Msg("Durable cache read failed, treating as miss")
		}
		return nil
	}

	if entry.expired(now) {
		m.deleteDurable(key)
		return nil
	}

	entry.AccessCount++
	entry.LastAccessedAt = now

	// Promote back into the memory tier and persist the access counters.
	m.mu.Lock()
	evicted := m.insertLocked(entry)
	m.mu.Unlock()

	if evicted != nil {
		m.persistCounters(evicted)
	}
	if err := m.writeDurable(entry); err != nil {
		m.logger.Error().Err(err).Str("key", key).Msg("Failed to persist cache access counters")
	}

	value := entry.Value
	return &value
}

// Set stores a result under key with the given TTL. The memory tier evicts
// its least-recently-accessed entry when full; last writer wins.
func (m *Manager) Set(key string, value *analysis.Result, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}

	now := time.Now()
	entry := &Entry{
		Key:            key,
		Value:          *value,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
	}

	m.mu.Lock()
	evicted := m.insertLocked(entry)
	m.mu.Unlock()

	if evicted != nil {
		m.persistCounters(evicted)
	}
	if err := m.writeDurable(entry); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	m.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cache entry set")
	return nil
}

// insertLocked places an entry in the memory tier, evicting the entry with
// the oldest LastAccessedAt if the tier is full. Returns the evicted entry,
// if any, so its access counters can be written back. Caller holds m.mu.
func (m *Manager) insertLocked(entry *Entry) *Entry {
	var evicted *Entry
	if _, exists := m.memory[entry.Key]; !exists && len(m.memory) >= m.capacity {
		var victim string
		var oldest time.Time
		for k, e := range m.memory {
			if victim == "" || e.LastAccessedAt.Before(oldest) {
				victim = k
				oldest = e.LastAccessedAt
			}
		}
		evicted = m.memory[victim]
		delete(m.memory, victim)
		m.logger.Debug().Str("key", victim).Msg("Evicted least-recently-accessed cache entry")
	}
	m.memory[entry.Key] = entry
	return evicted
}

// persistCounters writes an entry's access bookkeeping back to the durable
// tier. Memory-tier hits only touch the in-memory copy, so an entry leaving
// the tier carries counters the durable copy has not seen yet.
func (m *Manager) persistCounters(entry *Entry) {
	if err := m.writeDurable(entry); err != nil {
		m.logger.Error().Err(err).Str("key", entry.Key).Msg("Failed to persist access counters for evicted entry")
	}
}

// Delete removes a key from both tiers.
func (m *Manager) Delete(key string) error {
	m.mu.Lock()
	delete(m.memory, key)
	m.mu.Unlock()

	err := m.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		return err
	})
	if err != nil && err != buntdb.ErrNotFound {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// Clear drops everything from both tiers.
func (m *Manager) Clear() error {
	m.mu.Lock()
	m.memory = make(map[string]*Entry)
	m.mu.Unlock()

	err := m.db.Update(func(tx *buntdb.Tx) error {
		return tx.DeleteAll()
	})
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Stats reports tier sizes and a reuse-intensity hit rate: the share of
// live durable entries that have been read at least once.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	memorySize := len(m.memory)
	m.mu.Unlock()

	now := time.Now()
	live, reused := 0, 0

	err := m.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, value string) bool {
			var entry Entry
			if err := json.Unmarshal([]byte(value), &entry); err != nil {
				return true
			}
			if entry.expired(now) {
				return true
			}
			live++
			if entry.AccessCount > 0 {
				reused++
			}
			return true
		})
	})
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to scan cache for stats")
	}

	hitRate := 0.0
	if live > 0 {
		hitRate = float64(reused) / float64(live)
	}

	return Stats{
		MemorySize:     memorySize,
		PersistentSize: live,
		HitRate:        hitRate,
	}
}

// Cleanup removes every entry whose expiry has passed, scanning the
// expires_at index. Called periodically by the maintenance worker.
func (m *Manager) Cleanup() (int, error) {
	now := time.Now()

	m.mu.Lock()
	for key, entry := range m.memory {
		if entry.expired(now) {
			delete(m.memory, key)
		}
	}
	m.mu.Unlock()

	count := 0
	err := m.db.Update(func(tx *buntdb.Tx) error {
		var expired []string
		err := tx.Ascend("expires_at", func(key, value string) bool {
			var entry Entry
			if err := json.Unmarshal([]byte(value), &entry); err != nil {
				return true
			}
			if !entry.expired(now) {
				// Index is ordered by expiry; everything after is live.
				return false
			}
			expired = append(expired, key)
			return true
		})
		if err != nil {
			return err
		}

		for _, key := range expired {
			if _, err := tx.Delete(key); err != nil {
				m.logger.Error().Err(err).Str("key", key).Msg("Failed to delete expired key")
				continue
			}
			count++
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("cache cleanup failed: %w", err)
	}

	if count > 0 {
		m.logger.Info().Int("count", count).Msg("Cleaned up expired cache entries")
	}
	return count, nil
}

// Close closes the durable store.
func (m *Manager) Close() error {
	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}
	return nil
}

// Durable tier helpers.

func (m *Manager) getDurable(key string) (*Entry, error) {
	var entry Entry
	err := m.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(key)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(val), &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (m *Manager) writeDurable(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return m.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(entry.Key, string(data), nil)
		return err
	})
}

func (m *Manager) deleteDurable(key string) {
	err := m.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		return err
	})
	if err != nil && err != buntdb.ErrNotFound {
		m.logger.Error().Err(err).Str("key", key).Msg("Failed to purge expired key")
	}
}
