//go:build integration

package services

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/localnerve/campusgeo/internal/cache"
	"github.com/localnerve/campusgeo/internal/database"
	"github.com/localnerve/campusgeo/internal/repository"
	"github.com/localnerve/campusgeo/internal/testhelpers"
)

// TestWithPostGIS runs the building graph against PostGIS and Redis containers
func TestWithPostGIS(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tc, err := testhelpers.CreateAllTestContainers(t)
	if err != nil {
		t.Fatalf("Failed to start test containers: %v", err)
	}
	t.Cleanup(func() { tc.Terminate(t) })

	cfg := tc.Config()
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisURL, cache.KeyPrefix+"test:")
	if err != nil {
		t.Fatalf("Failed to open Redis cache: %v", err)
	}
	t.Cleanup(func() { redisCache.Close() })

	svc, err := NewBuildingService(cfg, db, redisCache)
	if err != nil {
		t.Fatalf("NewBuildingService failed: %v", err)
	}
	place := testhelpers.CreatePlace(t, db, "Campus")
	near, mid, far, _ := ringFixture(t, svc, place.ID)
	ctx := context.Background()

	t.Run("RingQueryMatchesAnchors", func(t *testing.T) {
		repo := repository.NewBuildingRepository(db, cfg.ReadTimeout)
		native, err := repo.NearestBuildings(ctx, centerLat, centerLon, 0, 5000)
		if err != nil {
			t.Fatalf("NearestBuildings failed: %v", err)
		}
		anchors, err := repo.Anchors(ctx)
		if err != nil {
			t.Fatalf("Anchors failed: %v", err)
		}
		inProcess, err := RingFromAnchors(anchors, centerLat, centerLon, 0, 5000)
		if err != nil {
			t.Fatalf("RingFromAnchors failed: %v", err)
		}

		if len(native) != 3 || len(inProcess) != 3 {
			t.Fatalf("Expected 3 buildings both ways, got %v and %v", native, inProcess)
		}
		want := []uint64{near, mid, far}
		for i := range native {
			if native[i].BuildingID != want[i] || inProcess[i].BuildingID != want[i] {
				t.Errorf("Position %d: expected %d, got %d (native) and %d (anchors)",
					i, want[i], native[i].BuildingID, inProcess[i].BuildingID)
			}
			// Spherical radii differ slightly between PostGIS and the haversine
			if math.Abs(native[i].Distance-inProcess[i].Distance) > native[i].Distance*0.005+1 {
				t.Errorf("Building %d: distances disagree, %g vs %g",
					want[i], native[i].Distance, inProcess[i].Distance)
			}
		}
	})

	t.Run("GetBuildingsForMap", func(t *testing.T) {
		result, err := svc.GetBuildingsForMap(ctx, MapQuery{Lat: centerLat, Lon: centerLon, Zoom: 18, MinRadius: ptr(300), MaxRadius: ptr(1000)})
		if err != nil {
			t.Fatalf("GetBuildingsForMap failed: %v", err)
		}
		if fmt.Sprint(mapIDs(result)) != fmt.Sprint([]uint64{mid}) {
			t.Errorf("Expected only the mid building, got %v", mapIDs(result))
		}
	})

	t.Run("RedisCache", func(t *testing.T) {
		first, err := svc.GetBuildingByID(ctx, near)
		if err != nil {
			t.Fatalf("GetBuildingByID failed: %v", err)
		}
		if _, ok, err := redisCache.Get(ctx, cache.BuildingKey(near)); err != nil || !ok {
			t.Fatalf("Expected a cached tree, got ok=%v err=%v", ok, err)
		}
		second, err := svc.GetBuildingByID(ctx, near)
		if err != nil {
			t.Fatalf("Cached GetBuildingByID failed: %v", err)
		}
		if first.Name != second.Name || len(second.Objects3D) != 1 {
			t.Errorf("Cached tree differs: %+v", second)
		}

		if err := svc.DeleteBuilding(ctx, near); err != nil {
			t.Fatalf("DeleteBuilding failed: %v", err)
		}
		if _, ok, _ := redisCache.Get(ctx, cache.BuildingKey(near)); ok {
			t.Error("Expected the cached tree to be invalidated")
		}
	})

	t.Run("HealthCheck", func(t *testing.T) {
		hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		result := HealthCheck(hctx, cfg, db, redisCache)
		if result.Database != "ok" || result.Cache != "ok" {
			t.Errorf("Expected database and cache ok, got %+v", result)
		}
	})
}
