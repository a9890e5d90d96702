// testcontainers.go
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

// This file is a helper for running tests with testcontainers.
// It is used by the integration tests and by the cmd/testcontainers standalone executable.
// Expects environment variables to be loaded from .env files, with defaults for everything.
//

package testhelpers

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/localnerve/campusgeo/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultDBImage    = "postgis/postgis:16-3.4"
	defaultRedisImage = "redis:7-alpine"
)

// TestContainers holds a PostGIS database and a Redis cache on one network
type TestContainers struct {
	Network        *testcontainers.DockerNetwork
	DBContainer    testcontainers.Container
	CacheContainer testcontainers.Container

	DBHost   string
	DBPort   string
	RedisURL string
}

func (tc *TestContainers) Terminate(t testing.TB) {
	ctx := context.Background()
	if tc.CacheContainer != nil {
		if err := tc.CacheContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Redis: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate PostGIS: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// Config returns a configuration that reaches the containers from the host
func (tc *TestContainers) Config() *config.Config {
	cfg := TestConfig()
	cfg.DBType = "postgres"
	cfg.DBHost = tc.DBHost
	cfg.DBPort = tc.DBPort
	cfg.DBDatabase = getEnv("DB_DATABASE", "campusgeo")
	cfg.DBUser = getEnv("DB_USER", "campusgeo")
	cfg.DBPassword = getEnv("DB_PASSWORD", "campusgeo")
	cfg.DBConnectionLimit = 5
	cfg.DBLogLevel = "warn"
	cfg.RedisURL = tc.RedisURL
	return cfg
}

func CreateAllTestContainers(t testing.TB) (*TestContainers, error) {
	ctx := context.Background()
	testContainers := &TestContainers{}

	// Create a network
	nw, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
		return nil, err
	}
	testContainers.Network = nw
	networkName := nw.Name

	// Create and start the PostGIS container, data on tmpfs
	tcpDBPort, err := nat.NewPort("tcp", "5432")
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create DB port")
		return nil, err
	}
	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getEnv("DB_IMAGE", defaultDBImage),
			ExposedPorts: []string{string(tcpDBPort)},
			Env: map[string]string{
				"POSTGRES_DB":       getEnv("DB_DATABASE", "campusgeo"),
				"POSTGRES_USER":     getEnv("DB_USER", "campusgeo"),
				"POSTGRES_PASSWORD": getEnv("DB_PASSWORD", "campusgeo"),
			},
			HostConfigModifier: func(hostConfig *container.HostConfig) {
				hostConfig.Tmpfs = map[string]string{"/var/lib/postgresql/data": "rw"}
			},
			// The init scripts restart the server once
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(tcpDBPort),
			).WithDeadline(90 * time.Second),
			Networks: []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {"postgis"},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start PostGIS")
		return nil, err
	}
	testContainers.DBContainer = dbContainer

	dbHost, _ := dbContainer.Host(ctx)
	dbPort, _ := dbContainer.MappedPort(ctx, tcpDBPort)
	testContainers.DBHost = dbHost
	testContainers.DBPort = dbPort.Port()
	logMessage(t, "DB_HOST=%s DB_PORT=%s", dbHost, dbPort.Port())

	// Create and start the Redis container
	tcpRedisPort, err := nat.NewPort("tcp", "6379")
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create Redis port")
		return nil, err
	}
	cacheContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getEnv("REDIS_IMAGE", defaultRedisImage),
			ExposedPorts: []string{string(tcpRedisPort)},
			WaitingFor:   wait.ForListeningPort(tcpRedisPort).WithStartupTimeout(30 * time.Second),
			Networks:     []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {"redis"},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Redis")
		return nil, err
	}
	testContainers.CacheContainer = cacheContainer

	redisHost, _ := cacheContainer.Host(ctx)
	redisPort, _ := cacheContainer.MappedPort(ctx, tcpRedisPort)
	testContainers.RedisURL = fmt.Sprintf("redis://%s:%s/0", redisHost, redisPort.Port())
	logMessage(t, "REDIS_URL=%s", testContainers.RedisURL)

	logMessage(t, "campusgeo testcontainers started successfully")
	return testContainers, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func exitWithError(t testing.TB, err error, message string) {
	if t != nil {
		t.Fatalf("%s: %v", message, err)
	} else {
		log.Fatalf("%s: %v", message, err)
	}
}

func logMessage(t testing.TB, format string, args ...interface{}) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		log.Printf(format, args...)
	}
}
