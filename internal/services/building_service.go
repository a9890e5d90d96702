package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/localnerve/campusgeo/internal/cache"
	"github.com/localnerve/campusgeo/internal/config"
	"github.com/localnerve/campusgeo/internal/metrics"
	"github.com/localnerve/campusgeo/internal/spatial"
	"gorm.io/gorm"
)

// BuildingService owns the building geometry graph: creation, resolution, ring queries and CRUD
type BuildingService struct {
	db          *gorm.DB
	cache       cache.Cache
	radii       RadiusTable
	txMaxWait   time.Duration
	txTimeout   time.Duration
	readTimeout time.Duration
	cacheTTL    time.Duration
}

// NewBuildingService wires the service from configuration. A nil cache disables caching.
func NewBuildingService(cfg *config.Config, db *gorm.DB, c cache.Cache) (*BuildingService, error) {
	radii, err := ParseRadiusTable(cfg.MapZoomRadii)
	if err != nil {
		return nil, fmt.Errorf("MAP_ZOOM_RADII: %w", err)
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &BuildingService{
		db:          db,
		cache:       c,
		radii:       radii,
		txMaxWait:   cfg.TxMaxWait,
		txTimeout:   cfg.TxTimeout,
		readTimeout: cfg.ReadTimeout,
		cacheTTL:    cfg.CacheTTL,
	}, nil
}

// Radii exposes the zoom table in use
func (s *BuildingService) Radii() RadiusTable {
	return s.radii
}

// GetBuildingByID returns the resolved tree of one building, from cache when possible
func (s *BuildingService) GetBuildingByID(ctx context.Context, id uint64) (*BuildingTree, error) {
	key := cache.BuildingKey(id)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("Building cache read failed for %s: %v", key, err)
	} else if ok {
		var tree BuildingTree
		if err := json.Unmarshal(data, &tree); err == nil {
			metrics.CacheHitsTotal.Inc()
			return &tree, nil
		}
	}
	metrics.CacheMissesTotal.Inc()

	tree, err := NewResolver(s.db, s.readTimeout).GetBuildingByID(ctx, id)
	if err != nil {
		return nil, classifyError(err)
	}
	s.store(ctx, tree)
	return tree, nil
}

func (s *BuildingService) store(ctx context.Context, tree *BuildingTree) {
	data, err := json.Marshal(tree)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.BuildingKey(tree.ID), data, s.cacheTTL); err != nil {
		log.Printf("Building cache write failed for %d: %v", tree.ID, err)
	}
}

func (s *BuildingService) invalidate(ctx context.Context, id uint64) {
	if err := s.cache.Delete(ctx, cache.BuildingKey(id)); err != nil {
		log.Printf("Building cache invalidation failed for %d: %v", id, err)
	}
}

// transaction runs fn in one transaction bounded by the lock wait and execution timeouts.
// fn must issue its statements with the context it is given. Any error rolls the whole
// transaction back.
func (s *BuildingService) transaction(ctx context.Context, operation string, fn func(ctx context.Context, tx *gorm.DB) error) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	dialect := spatial.For(s.db)
	err := s.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range dialect.TxGuards(s.txMaxWait, s.txTimeout) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to bound transaction: %w", err)
			}
		}
		err := fn(txCtx, tx)
		// Session guards are put back even when fn fails, the connection is pooled
		for _, stmt := range dialect.TxRestore() {
			if restoreErr := tx.Exec(stmt).Error; restoreErr != nil && err == nil {
				err = fmt.Errorf("failed to restore session after transaction: %w", restoreErr)
			}
		}
		return err
	})
	if err != nil {
		metrics.TransactionsFailedTotal.WithLabelValues(operation).Inc()
		return classifyTxError(err, txCtx.Err())
	}
	return nil
}
