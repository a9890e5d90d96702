package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/localnerve/campusgeo/internal/geometry"
	"github.com/localnerve/campusgeo/internal/models"
	"github.com/localnerve/campusgeo/internal/types"
)

const maxNameLength = 255

// Reference kinds of the building payload
type (
	PointRef = types.Ref[geometry.Point]
	FaceRef  = types.Ref[geometry.Polygon]
	NodeRef  = types.Ref[geometry.Point]
)

// CreateBuildingInput is the POST /api/building body
type CreateBuildingInput struct {
	Name        string                        `json:"name"`
	Description *string                       `json:"description"`
	Floors      *int                          `json:"floors"`
	Image       *string                       `json:"image"`
	PlaceID     *types.FlexID                 `json:"placeId" swaggertype:"integer"`
	Objects3D   types.FlexList[Object3DInput] `json:"objects3d" swaggertype:"array,object"`
}

// Object3DInput is one objects3d entry: objectType 0 carries meshes, 1 carries a body
type Object3DInput struct {
	ObjectType *int                      `json:"objectType"`
	Meshes     types.FlexList[MeshInput] `json:"meshes" swaggertype:"array,object"`
	Body       *BodyInput                `json:"body"`
}

// MeshInput references its anchor point by pointId or inline point
type MeshInput struct {
	URL      string          `json:"url"`
	PointID  *types.FlexID   `json:"pointId" swaggertype:"integer"`
	Point    *geometry.Point `json:"point"`
	Rotation float64         `json:"rotation"`
	Scale    *float64        `json:"scale"`
}

// BodyInput lists primitives by kind. Any kind may be absent.
type BodyInput struct {
	Name      string                        `json:"name"`
	Frustums  types.FlexList[FrustumInput]  `json:"frustums" swaggertype:"array,object"`
	Prisms    types.FlexList[PrismInput]    `json:"prisms" swaggertype:"array,object"`
	Pyramids  types.FlexList[PyramidInput]  `json:"pyramids" swaggertype:"array,object"`
	Cones     types.FlexList[ConeInput]     `json:"cones" swaggertype:"array,object"`
	Cylinders types.FlexList[CylinderInput] `json:"cylinders" swaggertype:"array,object"`
}

type FrustumInput struct {
	BaseFaceID *types.FlexID     `json:"baseFaceId" swaggertype:"integer"`
	BaseFace   *geometry.Polygon `json:"baseFace"`
	TopFaceID  *types.FlexID     `json:"topFaceId" swaggertype:"integer"`
	TopFace    *geometry.Polygon `json:"topFace"`
}

type PrismInput struct {
	BaseFaceID *types.FlexID     `json:"baseFaceId" swaggertype:"integer"`
	BaseFace   *geometry.Polygon `json:"baseFace"`
	Height     float64           `json:"height"`
}

type PyramidInput struct {
	BaseFaceID *types.FlexID     `json:"baseFaceId" swaggertype:"integer"`
	BaseFace   *geometry.Polygon `json:"baseFace"`
	ApexNodeID *types.FlexID     `json:"apexNodeId" swaggertype:"integer"`
	Apex       *geometry.Point   `json:"apex"`
}

type ConeInput struct {
	CenterNodeID *types.FlexID   `json:"centerNodeId" swaggertype:"integer"`
	Center       *geometry.Point `json:"center"`
	ApexNodeID   *types.FlexID   `json:"apexNodeId" swaggertype:"integer"`
	Apex         *geometry.Point `json:"apex"`
	Radius       float64         `json:"radius"`
}

type CylinderInput struct {
	CenterNodeID *types.FlexID   `json:"centerNodeId" swaggertype:"integer"`
	Center       *geometry.Point `json:"center"`
	Radius       float64         `json:"radius"`
	Height       float64         `json:"height"`
}

// BuildingSpec is a validated building payload, ready for the graph builder
type BuildingSpec struct {
	Name        string
	Description *string
	Floors      *int
	Image       *string
	PlaceID     uint64
	Objects     []Object3DSpec
}

// Object3DSpec is either a MeshObjectSpec or a BodyObjectSpec
type Object3DSpec interface {
	ObjectType() models.ObjectType
}

// MeshObjectSpec is a MESH object: one or more meshes and no body
type MeshObjectSpec struct {
	Meshes []MeshSpec
}

// BodyObjectSpec is a BODY object: exactly one body and no meshes
type BodyObjectSpec struct {
	Body BodySpec
}

func (MeshObjectSpec) ObjectType() models.ObjectType { return models.ObjectTypeMesh }
func (BodyObjectSpec) ObjectType() models.ObjectType { return models.ObjectTypeBody }

type MeshSpec struct {
	URL      string
	Point    PointRef
	Rotation float64
	Scale    float64
}

type BodySpec struct {
	Name      string
	Frustums  []FrustumSpec
	Prisms    []PrismSpec
	Pyramids  []PyramidSpec
	Cones     []ConeSpec
	Cylinders []CylinderSpec
}

type FrustumSpec struct {
	BaseFace FaceRef
	TopFace  FaceRef // optional
}

type PrismSpec struct {
	BaseFace FaceRef
	Height   float64
}

type PyramidSpec struct {
	BaseFace FaceRef
	Apex     NodeRef
}

type ConeSpec struct {
	Center NodeRef
	Apex   NodeRef
	Radius float64
}

type CylinderSpec struct {
	Center NodeRef
	Radius float64
	Height float64
}

// NewMeshObjectSpec requires at least one mesh
func NewMeshObjectSpec(meshes []MeshSpec) (MeshObjectSpec, error) {
	if len(meshes) == 0 {
		return MeshObjectSpec{}, validationError("a MESH object needs at least one mesh")
	}
	return MeshObjectSpec{Meshes: meshes}, nil
}

// NewBodyObjectSpec wraps the single body of a BODY object
func NewBodyObjectSpec(body BodySpec) BodyObjectSpec {
	return BodyObjectSpec{Body: body}
}

// Spec validates the payload. Inline geometry is encoded here so a bad
// coordinate fails before any transaction is opened.
func (in *CreateBuildingInput) Spec() (BuildingSpec, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return BuildingSpec{}, validationError("name is required")
	}
	if len(name) > maxNameLength {
		return BuildingSpec{}, validationError("name must be at most %d characters", maxNameLength)
	}
	if in.Floors != nil && *in.Floors < 0 {
		return BuildingSpec{}, validationError("floors must not be negative")
	}
	if in.PlaceID == nil {
		return BuildingSpec{}, validationError("placeId is required")
	}

	spec := BuildingSpec{
		Name:        name,
		Description: in.Description,
		Floors:      in.Floors,
		Image:       in.Image,
		PlaceID:     in.PlaceID.Uint64(),
	}
	for i, object := range in.Objects3D {
		objectSpec, err := NewObject3DSpec(object)
		if err != nil {
			return BuildingSpec{}, pathError(fmt.Sprintf("objects3d[%d]", i), err)
		}
		spec.Objects = append(spec.Objects, objectSpec)
	}
	return spec, nil
}

// NewObject3DSpec picks the object variant from objectType and rejects payloads
// that mix meshes and a body.
func NewObject3DSpec(in Object3DInput) (Object3DSpec, error) {
	if in.ObjectType == nil {
		return nil, validationError("objectType is required")
	}

	switch models.ObjectType(*in.ObjectType) {
	case models.ObjectTypeMesh:
		if in.Body != nil {
			return nil, validationError("a MESH object must not carry a body")
		}
		meshes := make([]MeshSpec, 0, len(in.Meshes))
		for i, mesh := range in.Meshes {
			meshSpec, err := newMeshSpec(mesh)
			if err != nil {
				return nil, pathError(fmt.Sprintf("meshes[%d]", i), err)
			}
			meshes = append(meshes, meshSpec)
		}
		return NewMeshObjectSpec(meshes)

	case models.ObjectTypeBody:
		if len(in.Meshes) > 0 {
			return nil, validationError("a BODY object must not carry meshes")
		}
		if in.Body == nil {
			return nil, validationError("a BODY object needs a body")
		}
		body, err := newBodySpec(*in.Body)
		if err != nil {
			return nil, pathError("body", err)
		}
		return NewBodyObjectSpec(body), nil
	}

	return nil, validationError("unknown objectType %d", *in.ObjectType)
}

func newMeshSpec(in MeshInput) (MeshSpec, error) {
	if strings.TrimSpace(in.URL) == "" {
		return MeshSpec{}, validationError("url is required")
	}
	scale := 1.0
	if in.Scale != nil {
		scale = *in.Scale
	}
	if scale <= 0 {
		return MeshSpec{}, validationError("scale must be positive")
	}
	point, err := pointRef("point", in.PointID, in.Point)
	if err != nil {
		return MeshSpec{}, err
	}
	return MeshSpec{URL: in.URL, Point: point, Rotation: in.Rotation, Scale: scale}, nil
}

func newBodySpec(in BodyInput) (BodySpec, error) {
	body := BodySpec{Name: strings.TrimSpace(in.Name)}
	if len(body.Name) > maxNameLength {
		return BodySpec{}, validationError("name must be at most %d characters", maxNameLength)
	}

	for i, f := range in.Frustums {
		path := fmt.Sprintf("frustums[%d]", i)
		base, err := faceRef("baseFace", f.BaseFaceID, f.BaseFace, false)
		if err != nil {
			return BodySpec{}, pathError(path, err)
		}
		top, err := faceRef("topFace", f.TopFaceID, f.TopFace, true)
		if err != nil {
			return BodySpec{}, pathError(path, err)
		}
		body.Frustums = append(body.Frustums, FrustumSpec{BaseFace: base, TopFace: top})
	}

	for i, p := range in.Prisms {
		path := fmt.Sprintf("prisms[%d]", i)
		base, err := faceRef("baseFace", p.BaseFaceID, p.BaseFace, false)
		if err != nil {
			return BodySpec{}, pathError(path, err)
		}
		if p.Height <= 0 {
			return BodySpec{}, pathError(path, validationError("height must be positive"))
		}
		body.Prisms = append(body.Prisms, PrismSpec{BaseFace: base, Height: p.Height})
	}

	for i, p := range in.Pyramids {
		path := fmt.Sprintf("pyramids[%d]", i)
		base, err := faceRef("baseFace", p.BaseFaceID, p.BaseFace, false)
		if err != nil {
			return BodySpec{}, pathError(path, err)
		}
		apex, err := pointRef("apex", p.ApexNodeID, p.Apex)
		if err != nil {
			return BodySpec{}, pathError(path, err)
		}
		body.Pyramids = append(body.Pyramids, PyramidSpec{BaseFace: base, Apex: apex})
	}

	for i, c := range in.Cones {
		path := fmt.Sprintf("cones[%d]", i)
		center, err := pointRef("center", c.CenterNodeID, c.Center)
		if err != nil {
			return BodySpec{}, pathError(path, err)
		}
		apex, err := pointRef("apex", c.ApexNodeID, c.Apex)
		if err != nil {
			return BodySpec{}, pathError(path, err)
		}
		if c.Radius <= 0 {
			return BodySpec{}, pathError(path, validationError("radius must be positive"))
		}
		body.Cones = append(body.Cones, ConeSpec{Center: center, Apex: apex, Radius: c.Radius})
	}

	for i, c := range in.Cylinders {
		path := fmt.Sprintf("cylinders[%d]", i)
		center, err := pointRef("center", c.CenterNodeID, c.Center)
		if err != nil {
			return BodySpec{}, pathError(path, err)
		}
		if c.Radius <= 0 || c.Height <= 0 {
			return BodySpec{}, pathError(path, validationError("radius and height must be positive"))
		}
		body.Cylinders = append(body.Cylinders, CylinderSpec{Center: center, Radius: c.Radius, Height: c.Height})
	}

	return body, nil
}

func pointRef(field string, id *types.FlexID, inline *geometry.Point) (PointRef, error) {
	ref, err := types.NewRef(id, inline)
	if err != nil {
		return ref, validationError("%s: %v", field, err)
	}
	if inline != nil {
		if _, err := geometry.EncodePoint(inline.Coordinates); err != nil {
			return ref, validationError("%s: %v", field, err)
		}
	}
	return ref, nil
}

func faceRef(field string, id *types.FlexID, inline *geometry.Polygon, optional bool) (FaceRef, error) {
	newRef := types.NewRef[geometry.Polygon]
	if optional {
		newRef = types.NewOptionalRef[geometry.Polygon]
	}
	ref, err := newRef(id, inline)
	if err != nil {
		return ref, validationError("%s: %v", field, err)
	}
	if inline != nil {
		if _, err := geometry.EncodeFace(inline.Coordinates); err != nil {
			return ref, validationError("%s: %v", field, err)
		}
	}
	return ref, nil
}

// pathError prefixes a validation message with the payload path of the failing element
func pathError(path string, err error) error {
	if errors.Is(err, ErrValidation) {
		msg := strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
		return validationError("%s: %s", path, msg)
	}
	return fmt.Errorf("%s: %w", path, err)
}
