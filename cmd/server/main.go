// main.go
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

package main

import (
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/campusgeo/internal/cache"
	"github.com/localnerve/campusgeo/internal/config"
	"github.com/localnerve/campusgeo/internal/database"
	"github.com/localnerve/campusgeo/internal/handlers"
	"github.com/localnerve/campusgeo/internal/middleware"
	"github.com/localnerve/campusgeo/internal/services"
	"github.com/localnerve/campusgeo/internal/types"
	"github.com/localnerve/campusgeo/internal/utils"

	_ "github.com/localnerve/campusgeo/docs/api" // Swagger docs
)

// @title CampusGeo API
// @version 1.0.0
// @description Campus building geometry service: buildings, their 3D object graphs and map ring queries
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/campusgeo
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Building cache, Redis when REDIS_URL is set
	buildingCache, err := cache.Open(cfg.RedisURL, cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("Failed to open building cache: %v", err)
	}
	if closer, ok := buildingCache.(io.Closer); ok {
		defer closer.Close()
	}
	log.Printf("Using %s building cache", buildingCache.Name())

	buildingService, err := services.NewBuildingService(cfg, db, buildingCache)
	if err != nil {
		log.Fatalf("Failed to create building service: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		// Disable startup message for cleaner logs
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("campusgeo")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health
	healthHandler := &handlers.HealthHandler{Config: cfg, DB: db, Cache: buildingCache}
	app.Get("/health", healthHandler.GetHealth)

	// API routes under /api, every request bounded by READ_TIMEOUT
	api := app.Group("/api")
	api.Use(middleware.RequestDeadline(cfg.ReadTimeout))

	// Building routes (public GET, admin POST/PATCH/DELETE)
	buildingHandler := &handlers.BuildingHandler{Service: buildingService}
	handlers.RegisterBuildingRoutes(api, buildingHandler, middleware.AuthAdmin(cfg))

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundResponse(c, "[404] Resource Not Found")
	})

	// Authorizer is initialized by the admin middleware on the first mutation
	log.Printf("Authorizer will be initialized on first authenticated request")

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	// Middleware errors carry their own status and type
	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	}

	return utils.ErrorResponse(c, message, code, errorType)
}
