package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func specFromJSON(t *testing.T, body string) (BuildingSpec, error) {
	t.Helper()
	var in CreateBuildingInput
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("Invalid test payload: %v", err)
	}
	return in.Spec()
}

func TestSpecSingleObjectOrArray(t *testing.T) {
	single, err := specFromJSON(t, `{"name": "A", "placeId": 1, "objects3d": {"objectType": 0, "meshes": {"url": "/a.glb", "pointId": 4}}}`)
	if err != nil {
		t.Fatalf("Spec failed: %v", err)
	}
	if len(single.Objects) != 1 {
		t.Fatalf("Expected one object, got %d", len(single.Objects))
	}
	mesh, ok := single.Objects[0].(MeshObjectSpec)
	if !ok {
		t.Fatalf("Expected a MeshObjectSpec, got %T", single.Objects[0])
	}
	if id, ok := mesh.Meshes[0].Point.ID(); !ok || id != 4 {
		t.Errorf("Expected point id 4, got %d", id)
	}
	if mesh.Meshes[0].Scale != 1 {
		t.Errorf("Expected default scale 1, got %g", mesh.Meshes[0].Scale)
	}

	many, err := specFromJSON(t, `{"name": " B ", "placeId": "2", "objects3d": [
		{"objectType": 1, "body": {"cylinders": {"centerNodeId": 3, "radius": 1, "height": 2}}},
		{"objectType": 0, "meshes": [{"url": "/b.glb", "point": {"type": "Point", "coordinates": [1, 2]}}]}
	]}`)
	if err != nil {
		t.Fatalf("Spec failed: %v", err)
	}
	if many.Name != "B" || many.PlaceID != 2 || len(many.Objects) != 2 {
		t.Errorf("Unexpected spec: %+v", many)
	}
	if _, ok := many.Objects[0].(BodyObjectSpec); !ok {
		t.Errorf("Expected a BodyObjectSpec first, got %T", many.Objects[0])
	}
}

func TestSpecRejectsAmbiguousReferences(t *testing.T) {
	payloads := map[string]string{
		"mesh point": `{"objectType": 0, "meshes": {"url": "/a.glb", "pointId": 1, "point": {"coordinates": [1, 2]}}}`,
		"prism face": `{"objectType": 1, "body": {"prisms": {"baseFaceId": 1, "baseFace": {"coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}, "height": 1}}}`,
		"cone apex":  `{"objectType": 1, "body": {"cones": {"centerNodeId": 1, "apexNodeId": 2, "apex": {"coordinates": [1, 2]}, "radius": 1}}}`,
		"top face":   `{"objectType": 1, "body": {"frustums": {"baseFaceId": 1, "topFaceId": 2, "topFace": {"coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}}}`,
	}
	for name, object := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := specFromJSON(t, `{"name": "A", "placeId": 1, "objects3d": [`+object+`]}`)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), "both an id and inline data") {
				t.Errorf("Expected an ambiguous reference message, got %q", err.Error())
			}
		})
	}
}

func TestSpecValidationPaths(t *testing.T) {
	cases := []struct {
		name   string
		object string
		want   string
	}{
		{"missing point", `{"objectType": 0, "meshes": [{"url": "/a.glb"}]}`, "objects3d[0]: meshes[0]: point: reference needs an id or inline data"},
		{"missing url", `{"objectType": 0, "meshes": [{"pointId": 1}]}`, "objects3d[0]: meshes[0]: url is required"},
		{"bad scale", `{"objectType": 0, "meshes": [{"url": "/a.glb", "pointId": 1, "scale": 0}]}`, "scale must be positive"},
		{"missing base face", `{"objectType": 1, "body": {"prisms": [{"height": 1}]}}`, "objects3d[0]: body: prisms[0]: baseFace"},
		{"flat prism", `{"objectType": 1, "body": {"prisms": [{"baseFaceId": 1, "height": 0}]}}`, "height must be positive"},
		{"open ring", `{"objectType": 1, "body": {"frustums": [{"baseFace": {"coordinates": [[[0,0],[1,0],[1,1],[0,1]]]}}]}}`, "frustums[0]: baseFace"},
		{"bad latitude", `{"objectType": 0, "meshes": [{"url": "/a.glb", "point": {"coordinates": [1]}}]}`, "meshes[0]: point"},
		{"cone radius", `{"objectType": 1, "body": {"cones": [{"centerNodeId": 1, "apexNodeId": 2, "radius": -1}]}}`, "cones[0]: radius must be positive"},
		{"cylinder height", `{"objectType": 1, "body": {"cylinders": [{"centerNodeId": 1, "radius": 1}]}}`, "cylinders[0]: radius and height must be positive"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := specFromJSON(t, `{"name": "A", "placeId": 1, "objects3d": [`+c.object+`]}`)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("Expected %q in %q", c.want, err.Error())
			}
		})
	}
}

func TestSpecBuildingFields(t *testing.T) {
	cases := map[string]string{
		"missing name":    `{"placeId": 1}`,
		"blank name":      `{"name": "   ", "placeId": 1}`,
		"long name":       `{"name": "` + strings.Repeat("x", maxNameLength+1) + `", "placeId": 1}`,
		"negative floors": `{"name": "A", "floors": -1, "placeId": 1}`,
		"missing place":   `{"name": "A"}`,
	}
	for name, body := range cases {
		if _, err := specFromJSON(t, body); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}

	spec, err := specFromJSON(t, `{"name": "A", "placeId": 1}`)
	if err != nil {
		t.Fatalf("A building without objects should be valid: %v", err)
	}
	if len(spec.Objects) != 0 {
		t.Errorf("Expected no objects, got %d", len(spec.Objects))
	}
}

func TestOptionalTopFace(t *testing.T) {
	spec, err := specFromJSON(t, `{"name": "A", "placeId": 1, "objects3d": {"objectType": 1, "body": {"frustums": {"baseFaceId": 1}}}}`)
	if err != nil {
		t.Fatalf("Spec failed: %v", err)
	}
	frustum := spec.Objects[0].(BodyObjectSpec).Body.Frustums[0]
	if !frustum.TopFace.IsZero() {
		t.Error("An absent top face should be a zero reference")
	}
}

func TestNewMeshObjectSpecRequiresMeshes(t *testing.T) {
	if _, err := NewMeshObjectSpec(nil); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}
