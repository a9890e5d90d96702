// health_test.go
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

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/campusgeo/internal/cache"
	"github.com/localnerve/campusgeo/internal/handlers"
	"github.com/localnerve/campusgeo/internal/services"
	"github.com/localnerve/campusgeo/internal/testhelpers"
)

// TestGetHealth tests GET /health against a reachable and an unreachable Authorizer
func TestGetHealth(t *testing.T) {
	authorizer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer authorizer.Close()

	db := testhelpers.NewTestDB(t)
	cfg := testhelpers.TestConfig()
	cfg.AuthzURL = authorizer.URL

	h := &handlers.HealthHandler{Config: cfg, DB: db, Cache: cache.NewMemoryCache(16, time.Minute)}
	app := fiber.New()
	app.Get("/health", h.GetHealth)

	resp := doRequest(t, app, "GET", "/health", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var result services.HealthCheckResult
	decode(t, resp, &result)
	if result.Status != "healthy" || result.Database != "ok" || result.Cache != "ok" {
		t.Errorf("Unexpected health: %+v", result)
	}
	if result.Details["spatial_dialect"] != "sqlite" || result.Details["cache_type"] != "MEMORY" {
		t.Errorf("Unexpected details: %v", result.Details)
	}

	authorizer.Close()
	resp = doRequest(t, app, "GET", "/health", nil)
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", resp.StatusCode)
	}
	decode(t, resp, &result)
	if result.Status != "unhealthy" || result.Authorizer != "unreachable" {
		t.Errorf("Unexpected health: %+v", result)
	}
}
