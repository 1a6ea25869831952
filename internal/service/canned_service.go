package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"triagedesk/internal/apperr"
	"triagedesk/internal/model"
)

type CannedStore interface {
	ListAll(ctx context.Context) ([]model.CannedMessage, error)
}

const (
	cannedCacheKey = "canned:all"
	cannedCacheTTL = 10 * time.Minute
)

// CannedService serves reply templates. Templates change rarely, so the
// list is cached in Redis; a cache failure falls through to the database.
type CannedService struct {
	store  CannedStore
	rdb    *redis.Client
	logger *zap.Logger
}

func NewCannedService(store CannedStore, rdb *redis.Client, logger *zap.Logger) *CannedService {
	return &CannedService{
		store:  store,
		rdb:    rdb,
		logger: logger,
	}
}

// List returns all templates, cache-first.
func (s *CannedService) List(ctx context.Context) ([]model.CannedMessage, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cannedCacheKey).Bytes()
		if err == nil {
			var templates []model.CannedMessage
			if err := json.Unmarshal(cached, &templates); err == nil {
				return templates, nil
			}
		}
	}

	templates, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, apperr.Storage("failed to fetch canned messages", err)
	}

	if s.rdb != nil {
		if data, err := json.Marshal(templates); err == nil {
			if err := s.rdb.Set(ctx, cannedCacheKey, data, cannedCacheTTL).Err(); err != nil {
				s.logger.Warn("Failed to cache canned messages", zap.Error(err))
			}
		}
	}

	return templates, nil
}

// Grouped returns the templates keyed by category for the compose dropdown.
func (s *CannedService) Grouped(ctx context.Context) (map[string][]model.CannedMessage, error) {
	templates, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]model.CannedMessage)
	for _, t := range templates {
		grouped[t.Category] = append(grouped[t.Category], t)
	}
	return grouped, nil
}
