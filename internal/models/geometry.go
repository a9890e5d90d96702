package models

import (
	"time"
)

// Point is a write-once 2D/3D coordinate shared by meshes and nodes
type Point struct {
	ID        uint64   `gorm:"primaryKey;autoIncrement"`
	Geom      Geometry `gorm:"column:geom;not null"`
	CreatedAt time.Time
}

// Face is a write-once closed polygon shared as the base or top of solids
type Face struct {
	ID        uint64   `gorm:"primaryKey;autoIncrement"`
	Geom      Geometry `gorm:"column:geom;not null"`
	CreatedAt time.Time
}

// Node gives a point a semantic role ("apex", "center") without copying coordinates
type Node struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Name    string `gorm:"size:64;not null"`
	PointID uint64 `gorm:"not null;index"`
	Point   *Point `gorm:"foreignKey:PointID;constraint:OnDelete:RESTRICT"`
}

// Place is the owning campus place of a building. It is read, never written, here.
type Place struct {
	ID       uint64   `gorm:"primaryKey;autoIncrement"`
	Name     string   `gorm:"size:255;not null"`
	Boundary Geometry `gorm:"column:boundary"`
}

// TableName overrides the table name for Point
func (Point) TableName() string {
	return "points"
}

// TableName overrides the table name for Face
func (Face) TableName() string {
	return "faces"
}

// TableName overrides the table name for Node
func (Node) TableName() string {
	return "nodes"
}

// TableName overrides the table name for Place
func (Place) TableName() string {
	return "places"
}
