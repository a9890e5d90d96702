package models

import (
	"time"
)

// ObjectType discriminates the children of an Object3D
type ObjectType int

const (
	// ObjectTypeMesh objects carry one or more mesh objects and no body
	ObjectTypeMesh ObjectType = 0
	// ObjectTypeBody objects carry exactly one body and no meshes
	ObjectTypeBody ObjectType = 1
)

// Valid reports whether the object type is known
func (t ObjectType) Valid() bool {
	return t == ObjectTypeMesh || t == ObjectTypeBody
}

func (t ObjectType) String() string {
	switch t {
	case ObjectTypeMesh:
		return "MESH"
	case ObjectTypeBody:
		return "BODY"
	}
	return "UNKNOWN"
}

// Building is the root of a geometry graph
type Building struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement"`
	Name        string  `gorm:"size:255;not null;index"`
	Description *string `gorm:"type:text"`
	Floors      *int
	Image       *string    `gorm:"size:1024"`
	PlaceID     uint64     `gorm:"not null;index"`
	Place       *Place     `gorm:"foreignKey:PlaceID;constraint:OnDelete:RESTRICT"`
	Objects3D   []Object3D `gorm:"foreignKey:BuildingID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Object3D is either a set of meshes or a single body
type Object3D struct {
	ID         uint64       `gorm:"primaryKey;autoIncrement"`
	BuildingID uint64       `gorm:"not null;index"`
	ObjectType ObjectType   `gorm:"not null"`
	Meshes     []MeshObject `gorm:"foreignKey:Object3DID;constraint:OnDelete:CASCADE"`
	Body       *Body        `gorm:"foreignKey:Object3DID;constraint:OnDelete:CASCADE"`
}

// MeshObject is a renderable mesh anchored at a point
type MeshObject struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement"`
	Object3DID uint64  `gorm:"column:object3d_id;not null;index"`
	URL        string  `gorm:"column:url;size:1024;not null"`
	PointID    uint64  `gorm:"not null;index"`
	Point      *Point  `gorm:"foreignKey:PointID;constraint:OnDelete:RESTRICT"`
	Rotation   float64 `gorm:"not null;default:0"`
	Scale      float64 `gorm:"not null;default:1"`
}

// Body groups the primitive solids of a BODY object
type Body struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	Object3DID uint64     `gorm:"column:object3d_id;not null;uniqueIndex"`
	Name       string     `gorm:"size:255"`
	Frustums   []Frustum  `gorm:"foreignKey:BodyID;constraint:OnDelete:CASCADE"`
	Prisms     []Prism    `gorm:"foreignKey:BodyID;constraint:OnDelete:CASCADE"`
	Pyramids   []Pyramid  `gorm:"foreignKey:BodyID;constraint:OnDelete:CASCADE"`
	Cones      []Cone     `gorm:"foreignKey:BodyID;constraint:OnDelete:CASCADE"`
	Cylinders  []Cylinder `gorm:"foreignKey:BodyID;constraint:OnDelete:CASCADE"`
}

// Frustum is a base face with an optional top face
type Frustum struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement"`
	BodyID     uint64  `gorm:"not null;index"`
	BaseFaceID uint64  `gorm:"not null;index"`
	BaseFace   *Face   `gorm:"foreignKey:BaseFaceID;constraint:OnDelete:RESTRICT"`
	TopFaceID  *uint64 `gorm:"index"`
	TopFace    *Face   `gorm:"foreignKey:TopFaceID;constraint:OnDelete:RESTRICT"`
}

// Prism extrudes a base face by a height
type Prism struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement"`
	BodyID     uint64  `gorm:"not null;index"`
	BaseFaceID uint64  `gorm:"not null;index"`
	BaseFace   *Face   `gorm:"foreignKey:BaseFaceID;constraint:OnDelete:RESTRICT"`
	Height     float64 `gorm:"not null"`
}

// Pyramid joins a base face to an apex node
type Pyramid struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	BodyID     uint64 `gorm:"not null;index"`
	BaseFaceID uint64 `gorm:"not null;index"`
	BaseFace   *Face  `gorm:"foreignKey:BaseFaceID;constraint:OnDelete:RESTRICT"`
	ApexNodeID uint64 `gorm:"not null;index"`
	ApexNode   *Node  `gorm:"foreignKey:ApexNodeID;constraint:OnDelete:RESTRICT"`
}

// Cone is a circular base around a center node rising to an apex node
type Cone struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	BodyID       uint64  `gorm:"not null;index"`
	CenterNodeID uint64  `gorm:"not null;index"`
	CenterNode   *Node   `gorm:"foreignKey:CenterNodeID;constraint:OnDelete:RESTRICT"`
	ApexNodeID   uint64  `gorm:"not null;index"`
	ApexNode     *Node   `gorm:"foreignKey:ApexNodeID;constraint:OnDelete:RESTRICT"`
	Radius       float64 `gorm:"not null"`
}

// Cylinder is a circular base around a center node extruded by a height
type Cylinder struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	BodyID       uint64  `gorm:"not null;index"`
	CenterNodeID uint64  `gorm:"not null;index"`
	CenterNode   *Node   `gorm:"foreignKey:CenterNodeID;constraint:OnDelete:RESTRICT"`
	Radius       float64 `gorm:"not null"`
	Height       float64 `gorm:"not null"`
}

// TableName overrides the table name for Building
func (Building) TableName() string {
	return "buildings"
}

// TableName overrides the table name for Object3D
func (Object3D) TableName() string {
	return "objects3d"
}

// TableName overrides the table name for MeshObject
func (MeshObject) TableName() string {
	return "mesh_objects"
}

// TableName overrides the table name for Body
func (Body) TableName() string {
	return "bodies"
}

// TableName overrides the table name for Frustum
func (Frustum) TableName() string {
	return "frustums"
}

// TableName overrides the table name for Prism
func (Prism) TableName() string {
	return "prisms"
}

// TableName overrides the table name for Pyramid
func (Pyramid) TableName() string {
	return "pyramids"
}

// TableName overrides the table name for Cone
func (Cone) TableName() string {
	return "cones"
}

// TableName overrides the table name for Cylinder
func (Cylinder) TableName() string {
	return "cylinders"
}

// All lists every model in dependency order for migrations
func All() []interface{} {
	return []interface{}{
		&Place{},
		&Point{},
		&Face{},
		&Node{},
		&Building{},
		&Object3D{},
		&MeshObject{},
		&Body{},
		&Frustum{},
		&Prism{},
		&Pyramid{},
		&Cone{},
		&Cylinder{},
	}
}
