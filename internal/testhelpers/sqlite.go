// sqlite.go
//
// Campus building geometry service: spatial storage, graph resolution and map ring queries
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of campusgeo.
// campusgeo is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// campusgeo is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with campusgeo.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package testhelpers

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/campusgeo/internal/config"
	"github.com/localnerve/campusgeo/internal/database"
	"github.com/localnerve/campusgeo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database on a single connection.
// Foreign keys are enforced so RESTRICT and CASCADE constraints behave as in production.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying SQL DB: %v", err)
	}
	// Every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}

// TestConfig returns the service settings used by tests
func TestConfig() *config.Config {
	return &config.Config{
		DBType:      "sqlite",
		DBDatabase:  ":memory:",
		CacheTTL:    time.Minute,
		CacheSize:   64,
		TxMaxWait:   2 * time.Second,
		TxTimeout:   5 * time.Second,
		ReadTimeout: 10 * time.Second,
	}
}

// CampusBoundary is a small square around Hanoi used as a default place boundary
const CampusBoundary = "POLYGON((105.83 21.02,105.84 21.02,105.84 21.03,105.83 21.03,105.83 21.02))"

// CreatePlace inserts a place with the default boundary
func CreatePlace(t testing.TB, db *gorm.DB, name string) *models.Place {
	t.Helper()

	place := &models.Place{Name: name, Boundary: models.NewGeometry(CampusBoundary)}
	if err := db.Create(place).Error; err != nil {
		t.Fatalf("Failed to create place %s: %v", name, err)
	}
	return place
}

// CountRows returns the number of rows in a model's table
func CountRows(t testing.TB, db *gorm.DB, model interface{}) int64 {
	t.Helper()

	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return count
}
