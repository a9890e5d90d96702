// database_test.go
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

package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/campusgeo/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSplitStatements(t *testing.T) {
	script := `-- header comment
CREATE TABLE a (id INT); -- trailing
INSERT INTO a VALUES ('x -- not a comment');

`
	got := SplitStatements(script)
	if len(got) != 2 {
		t.Fatalf("Expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id INT)" {
		t.Errorf("Unexpected first statement %q", got[0])
	}
	if got[1] != "INSERT INTO a VALUES ('x -- not a comment')" {
		t.Errorf("Quoted dashes should survive, got %q", got[1])
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"silent": logger.Silent,
		"ERROR":  logger.Error,
		"info":   logger.Info,
		"":       logger.Warn,
		"bogus":  logger.Warn,
	}
	for in, want := range cases {
		if got := LogLevel(in); got != want {
			t.Errorf("LogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAutoMigrateSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer Close(db)

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	for _, table := range []string{"places", "points", "faces", "nodes", "buildings", "objects3d", "mesh_objects", "bodies", "frustums", "prisms", "pyramids", "cones", "cylinders"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("Expected table %s", table)
		}
	}
}

func TestConnectUnsupported(t *testing.T) {
	if _, err := Connect(&config.Config{DBType: "oracle"}); err == nil {
		t.Error("Expected error for unsupported database type")
	}
}
