// Package spatial holds the per-database SQL fragments needed to store and
// query SRID 4326 geometry through GORM.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"gorm.io/gorm"
	"gorm.io/hints"
)

// Dialect describes how one database stores and exposes geometry
type Dialect interface {
	// Name is the GORM dialector name
	Name() string
	// ColumnType is the DDL type of a geometry column
	ColumnType() string
	// FromText wraps a WKT placeholder into a geometry constructor
	FromText(placeholder string) string
	// RenderWKT rewrites WKT into the text FromText accepts, or rejects what the database cannot store
	RenderWKT(wkt string) (string, error)
	// AsText renders a geometry column expression as WKT
	AsText(column string) string
	// NativeDistance reports whether ring queries can run in SQL
	NativeDistance() bool
	// Anchor renders the point measured for a geometry column, the centroid when it is a face
	Anchor(column string, face bool) string
	// SphereDistance renders the great-circle distance in meters between an Anchor
	// expression and a WKT point placeholder
	SphereDistance(anchor, center string) string
	// TxGuards are statements run first in a write transaction to bound lock waits and execution
	TxGuards(maxWait, timeout time.Duration) []string
	// TxRestore undoes session state left by TxGuards before the connection returns to the pool
	TxRestore() []string
	// ReadHints bounds a SELECT's execution time where the database supports hints
	ReadHints(timeout time.Duration) func(*gorm.DB) *gorm.DB
}

// For returns the dialect matching the connection
func For(db *gorm.DB) Dialect {
	if db == nil || db.Dialector == nil {
		return sqliteDialect{}
	}
	return ByName(db.Dialector.Name())
}

// ByName returns the dialect for a GORM dialector name, defaulting to plain WKT text storage
func ByName(name string) Dialect {
	switch name {
	case "postgres":
		return postgisDialect{}
	case "mysql":
		return mysqlDialect{}
	case "sqlserver":
		return sqlserverDialect{}
	}
	return sqliteDialect{}
}

// ErrUnsupportedGeometry is returned by RenderWKT for geometry the database cannot store
var ErrUnsupportedGeometry = errors.New("unsupported geometry")

// zTag matches the dimension tag of 3D WKT, e.g. "POINT Z (" or "POLYGON Z (("
var zTag = regexp.MustCompile(`^(\s*[A-Za-z]+)\s+[Zz]\s*\(`)

// HasZ reports whether WKT is tagged as 3D
func HasZ(wkt string) bool {
	return zTag.MatchString(wkt)
}

func noHints(db *gorm.DB) *gorm.DB { return db }
func identityWKT(wkt string) (string, error) { return wkt, nil }

type postgisDialect struct{}

func (postgisDialect) Name() string { return "postgres" }
func (postgisDialect) ColumnType() string { return "geometry(Geometry,4326)" }
func (postgisDialect) FromText(p string) string {
	return fmt.Sprintf("ST_GeomFromText(%s, 4326)", p)
}
func (postgisDialect) RenderWKT(wkt string) (string, error) { return identityWKT(wkt) }
func (postgisDialect) AsText(column string) string { return fmt.Sprintf("ST_AsText(%s)", column) }
func (postgisDialect) NativeDistance() bool { return true }
func (postgisDialect) Anchor(column string, face bool) string {
	if face {
		return "ST_Centroid(" + column + ")"
	}
	return column
}
func (postgisDialect) SphereDistance(anchor, center string) string {
	return fmt.Sprintf("ST_DistanceSphere(ST_Force2D(%s), ST_GeomFromText(%s, 4326))", anchor, center)
}
func (postgisDialect) TxGuards(maxWait, timeout time.Duration) []string {
	return []string{
		fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", maxWait.Milliseconds()),
		fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", timeout.Milliseconds()),
	}
}
func (postgisDialect) TxRestore() []string { return nil }
func (postgisDialect) ReadHints(time.Duration) func(*gorm.DB) *gorm.DB { return noHints }

// MySQL 8 treats SRID 4326 as lat/lon unless told otherwise
type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }
func (mysqlDialect) ColumnType() string { return "GEOMETRY SRID 4326" }
func (mysqlDialect) FromText(p string) string {
	return fmt.Sprintf("ST_GeomFromText(%s, 4326, 'axis-order=long-lat')", p)
}
func (mysqlDialect) RenderWKT(wkt string) (string, error) {
	if HasZ(wkt) {
		return "", fmt.Errorf("%w: mysql stores 2D geometry only, drop the elevation coordinate", ErrUnsupportedGeometry)
	}
	return wkt, nil
}
func (mysqlDialect) AsText(column string) string {
	return fmt.Sprintf("ST_AsText(%s, 'axis-order=long-lat')", column)
}
func (mysqlDialect) NativeDistance() bool { return true }

// ST_Centroid is not implemented for geographic SRSs, so faces are measured in SRID 0
func (mysqlDialect) Anchor(column string, face bool) string {
	if face {
		return fmt.Sprintf("ST_SRID(ST_Centroid(ST_SRID(%s, 0)), 4326)", column)
	}
	return column
}
func (mysqlDialect) SphereDistance(anchor, center string) string {
	return fmt.Sprintf("ST_Distance_Sphere(%s, ST_GeomFromText(%s, 4326, 'axis-order=long-lat'))", anchor, center)
}

// innodb_lock_wait_timeout is session scoped, so the previous value is saved and put back.
// max_execution_time only bounds SELECTs; writes are bounded by the transaction context.
func (mysqlDialect) TxGuards(maxWait, _ time.Duration) []string {
	seconds := int64(math.Ceil(maxWait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return []string{
		fmt.Sprintf("SET @campusgeo_lock_wait = @@SESSION.innodb_lock_wait_timeout, SESSION innodb_lock_wait_timeout = %d", seconds),
	}
}
func (mysqlDialect) TxRestore() []string {
	return []string{"SET SESSION innodb_lock_wait_timeout = @campusgeo_lock_wait"}
}
func (mysqlDialect) ReadHints(timeout time.Duration) func(*gorm.DB) *gorm.DB {
	if timeout <= 0 {
		return noHints
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Clauses(hints.New(fmt.Sprintf("MAX_EXECUTION_TIME(%d)", timeout.Milliseconds())))
	}
}

type sqlserverDialect struct{}

func (sqlserverDialect) Name() string { return "sqlserver" }
func (sqlserverDialect) ColumnType() string { return "geometry" }
func (sqlserverDialect) FromText(p string) string {
	return fmt.Sprintf("geometry::STGeomFromText(%s, 4326)", p)
}

// SQL Server infers Z from the coordinate count and rejects the Z tag
func (sqlserverDialect) RenderWKT(wkt string) (string, error) {
	return zTag.ReplaceAllString(wkt, "$1 ("), nil
}
func (sqlserverDialect) AsText(column string) string { return fmt.Sprintf("%s.STAsText()", column) }
func (sqlserverDialect) NativeDistance() bool { return true }

// Geometry columns hold planar SRID 4326, so anchors are converted to geography for STDistance
func (sqlserverDialect) Anchor(column string, face bool) string {
	if face {
		column += ".STCentroid()"
	}
	return fmt.Sprintf("geography::STGeomFromText(%s.STAsText(), 4326)", column)
}
func (sqlserverDialect) SphereDistance(anchor, center string) string {
	return fmt.Sprintf("%s.STDistance(geography::STGeomFromText(%s, 4326))", anchor, center)
}
func (sqlserverDialect) TxGuards(maxWait, _ time.Duration) []string {
	return []string{fmt.Sprintf("SET LOCK_TIMEOUT %d", maxWait.Milliseconds())}
}

// -1 is the server default, wait forever
func (sqlserverDialect) TxRestore() []string { return []string{"SET LOCK_TIMEOUT -1"} }
func (sqlserverDialect) ReadHints(time.Duration) func(*gorm.DB) *gorm.DB { return noHints }

// SQLite has no spatial type; geometry is kept as WKT text
type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }
func (sqliteDialect) ColumnType() string { return "TEXT" }
func (sqliteDialect) FromText(p string) string { return p }
func (sqliteDialect) RenderWKT(wkt string) (string, error) { return identityWKT(wkt) }
func (sqliteDialect) AsText(column string) string { return column }
func (sqliteDialect) NativeDistance() bool { return false }
func (sqliteDialect) Anchor(column string, _ bool) string { return column }
func (sqliteDialect) SphereDistance(string, string) string { return "" }
func (sqliteDialect) TxGuards(time.Duration, time.Duration) []string { return nil }
func (sqliteDialect) TxRestore() []string { return nil }
func (sqliteDialect) ReadHints(time.Duration) func(*gorm.DB) *gorm.DB { return noHints }
