package models

import (
	"context"
	"database/sql/driver"

	"github.com/localnerve/campusgeo/internal/geometry"
	"github.com/localnerve/campusgeo/internal/spatial"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Geometry is a SRID 4326 geometry column held as WKT in Go.
// Writes are wrapped in the dialect's geometry constructor; reads normalize
// whatever the driver returns back to WKT.
type Geometry struct {
	WKT string
}

// NewGeometry wraps WKT text
func NewGeometry(wkt string) Geometry {
	return Geometry{WKT: wkt}
}

// Valid reports whether the column holds a value
func (g Geometry) Valid() bool {
	return g.WKT != ""
}

// Value returns the WKT, or NULL for an empty geometry
func (g Geometry) Value() (driver.Value, error) {
	if !g.Valid() {
		return nil, nil
	}
	return g.WKT, nil
}

// Scan normalizes the raw column value to WKT
func (g *Geometry) Scan(value interface{}) error {
	wkt, err := geometry.ColumnToWKT(value)
	if err != nil {
		return err
	}
	g.WKT = wkt
	return nil
}

// GormDataType is the generic data type name
func (Geometry) GormDataType() string {
	return "geometry"
}

// GormDBDataType ensures the correct column type is used for each database driver.
// SQLite has no geometry type and keeps WKT in a TEXT column.
func (Geometry) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return spatial.For(db).ColumnType()
}

// GormValue wraps the WKT in the dialect's geometry constructor on insert and update.
// Geometry the database cannot store fails the statement.
func (g Geometry) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	if !g.Valid() {
		return clause.Expr{SQL: "NULL"}
	}
	dialect := spatial.For(db)
	text, err := dialect.RenderWKT(g.WKT)
	if err != nil {
		_ = db.AddError(err)
		return clause.Expr{SQL: "NULL"}
	}
	return clause.Expr{
		SQL:  dialect.FromText("?"),
		Vars: []interface{}{text},
	}
}
