// Package store owns an applicant's ApplicationRecord and keeps it persisted in a KV.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
	"social-support-intake/internal/common/metrics"
	"social-support-intake/internal/models"
)

// DefaultKeyPrefix is the storage key for application data.
const DefaultKeyPrefix = "ssa_application_data_v1"

// Key scopes prefix to a session.
func Key(prefix, sessionID string) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if sessionID == "" {
		return prefix
	}
	return prefix + ":" + sessionID
}

// Store is the single owner of one ApplicationRecord. The in-memory copy is authoritative;
// persistence failures are logged and counted, never returned.
type Store struct {
	mu     sync.RWMutex
	kv     KV
	key    string
	record models.ApplicationRecord
	logger logger.Logger
}

func New(kv KV, key string, log logger.Logger) *Store {
	return &Store{
		kv:     kv,
		key:    key,
		record: models.DefaultRecord(),
		logger: logger.Component(log, "store").WithFields(map[string]interface{}{"key": key}),
	}
}

// Load reads the persisted record into memory. A missing, unreadable or malformed blob
// yields the default record.
func (s *Store) Load(ctx context.Context) models.ApplicationRecord {
	record := s.read(ctx)

	s.mu.Lock()
	s.record = record
	s.mu.Unlock()
	return record
}

func (s *Store) read(ctx context.Context) models.ApplicationRecord {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		stdErr := errors.NewStoreReadFailedError(s.key, err)
		s.logger.Warn("failed to read application record, using defaults", map[string]interface{}{
			"errorCode": stdErr.Code,
			"error":     err.Error(),
		})
		return models.DefaultRecord()
	}
	if !ok {
		return models.DefaultRecord()
	}

	if err := recordSchema.ValidateBytes(data); err != nil {
		s.logger.Warn("discarding malformed application record", map[string]interface{}{
			"error": err.Error(),
		})
		return models.DefaultRecord()
	}

	var record models.ApplicationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn("discarding undecodable application record", map[string]interface{}{
			"error": err.Error(),
		})
		return models.DefaultRecord()
	}
	return record
}

// Update replaces each non-nil section wholesale and persists the result.
func (s *Store) Update(ctx context.Context, sections models.Sections) models.ApplicationRecord {
	s.mu.Lock()
	s.record = s.record.Merge(sections)
	record := s.record
	s.mu.Unlock()

	s.persist(ctx, record)
	return record
}

// Reset replaces the record with defaults and persists it.
func (s *Store) Reset(ctx context.Context) models.ApplicationRecord {
	record := models.DefaultRecord()

	s.mu.Lock()
	s.record = record
	s.mu.Unlock()

	s.persist(ctx, record)
	return record
}

func (s *Store) Current() models.ApplicationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

func (s *Store) persist(ctx context.Context, record models.ApplicationRecord) {
	data, err := json.Marshal(record)
	if err == nil {
		err = s.kv.Set(ctx, s.key, data)
	}
	if err != nil {
		metrics.StoreWriteFailures.Inc()
		stdErr := errors.NewStoreWriteFailedError(s.key, err)
		s.logger.Warn("failed to persist application record", map[string]interface{}{
			"errorCode": stdErr.Code,
			"error":     err.Error(),
		})
	}
}
