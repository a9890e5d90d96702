// building.go
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

package handlers

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/campusgeo/internal/services"
	"github.com/localnerve/campusgeo/internal/utils"
)

// BuildingHandler handles building geometry routes
type BuildingHandler struct {
	Service *services.BuildingService
}

// BuildingResponse wraps one resolved building
type BuildingResponse struct {
	Message  string                 `json:"message,omitempty"`
	Building *services.BuildingTree `json:"building"`
}

// RegisterBuildingRoutes mounts the building routes. Mutations run behind admin.
func RegisterBuildingRoutes(router fiber.Router, h *BuildingHandler, admin fiber.Handler) {
	building := router.Group("/building")

	building.Get("/", h.ListBuildings)
	building.Get("/map", h.GetBuildingsForMap)
	building.Get("/:id", h.GetBuilding)

	building.Post("/", admin, h.CreateBuilding)
	building.Patch("/:id", admin, h.UpdateBuilding)
	building.Delete("/:id", admin, h.DeleteBuilding)
}

// CreateBuilding handles POST /api/building
// @Summary Create a building
// @Description Create a building with its Object3D graph. Every geometry reference takes either an id or inline GeoJSON, never both.
// @Tags Building
// @Accept json
// @Produce json
// @Param body body services.CreateBuildingInput true "Building and objects3d"
// @Success 201 {object} BuildingResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 408 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /building [post]
func (h *BuildingHandler) CreateBuilding(c *fiber.Ctx) error {
	var input services.CreateBuildingInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, "Invalid input: "+err.Error(), fiber.StatusBadRequest, "building.create.validation")
	}

	spec, err := input.Spec()
	if err != nil {
		return serviceErrorResponse(c, err, "building.create")
	}

	tree, err := h.Service.CreateBuilding(c.UserContext(), spec)
	if err != nil {
		return serviceErrorResponse(c, err, "building.create")
	}

	return c.Status(fiber.StatusCreated).JSON(BuildingResponse{
		Message:  "Building created",
		Building: tree,
	})
}

// GetBuilding handles GET /api/building/:id
// @Summary Get a building
// @Description Get a building with every primitive's geometry resolved to GeoJSON
// @Tags Building
// @Produce json
// @Param id path int true "Building ID"
// @Success 200 {object} BuildingResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 408 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /building/{id} [get]
func (h *BuildingHandler) GetBuilding(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err, "building.get")
	}

	tree, err := h.Service.GetBuildingByID(c.UserContext(), id)
	if err != nil {
		return serviceErrorResponse(c, err, "building.get")
	}

	return c.JSON(BuildingResponse{Building: tree})
}

// ListBuildings handles GET /api/building
// @Summary List buildings
// @Description Page through building summaries without geometry
// @Tags Building
// @Produce json
// @Param page query int false "Page number, from 1"
// @Param limit query int false "Page size, at most 100"
// @Param search query string false "Case-insensitive match on name or description"
// @Param placeId query int false "Owning place"
// @Param minFloors query int false "Minimum floor count"
// @Param maxFloors query int false "Maximum floor count"
// @Success 200 {object} services.BuildingList
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /building [get]
func (h *BuildingHandler) ListBuildings(c *fiber.Ctx) error {
	q := services.ListQuery{Search: c.Query("search")}

	ints := []struct {
		key string
		dst **int
	}{
		{"minFloors", &q.MinFloors},
		{"maxFloors", &q.MaxFloors},
	}
	for _, p := range ints {
		v, err := queryInt(c, p.key)
		if err != nil {
			return badRequest(c, err, "building.list")
		}
		*p.dst = v
	}

	page, err := queryInt(c, "page")
	if err != nil {
		return badRequest(c, err, "building.list")
	}
	if page != nil {
		q.Page = *page
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, err, "building.list")
	}
	if limit != nil {
		q.Limit = *limit
	}
	placeID, err := queryInt(c, "placeId")
	if err != nil {
		return badRequest(c, err, "building.list")
	}
	if placeID != nil && *placeID > 0 {
		q.PlaceID = uint64(*placeID)
	}

	list, err := h.Service.ListBuildings(c.UserContext(), q)
	if err != nil {
		return serviceErrorResponse(c, err, "building.list")
	}
	return c.JSON(list)
}

// GetBuildingsForMap handles GET /api/building/map
// @Summary Buildings around a map camera
// @Description Buildings whose nearest geometry lies within the ring derived from zoom and tilt, nearest first. minRadius and maxRadius override the derived ring.
// @Tags Building
// @Produce json
// @Param lat query number true "Camera latitude"
// @Param lon query number true "Camera longitude"
// @Param zoom query number false "Map zoom level, fractions floored"
// @Param heading query number false "Camera heading, ignored"
// @Param tilt query number false "Camera tilt in degrees"
// @Param minRadius query number false "Inner ring radius in meters"
// @Param maxRadius query number false "Outer ring radius in meters"
// @Success 200 {object} services.MapResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 408 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /building/map [get]
func (h *BuildingHandler) GetBuildingsForMap(c *fiber.Ctx) error {
	var q services.MapQuery
	var err error

	if q.Lat, err = requiredFloat(c, "lat"); err != nil {
		return badRequest(c, err, "building.map")
	}
	if q.Lon, err = requiredFloat(c, "lon"); err != nil {
		return badRequest(c, err, "building.map")
	}

	optional := []struct {
		key string
		dst *float64
	}{
		{"heading", &q.Heading},
		{"tilt", &q.Tilt},
	}
	for _, p := range optional {
		v, err := queryFloat(c, p.key)
		if err != nil {
			return badRequest(c, err, "building.map")
		}
		if v != nil {
			*p.dst = *v
		}
	}

	// Fractional zooms use the table entry of their integer level.
	zoom, err := queryFloat(c, "zoom")
	if err != nil {
		return badRequest(c, err, "building.map")
	}
	if zoom != nil {
		q.Zoom = int(math.Floor(*zoom))
	}

	if q.MinRadius, err = queryFloat(c, "minRadius"); err != nil {
		return badRequest(c, err, "building.map")
	}
	if q.MaxRadius, err = queryFloat(c, "maxRadius"); err != nil {
		return badRequest(c, err, "building.map")
	}

	result, err := h.Service.GetBuildingsForMap(c.UserContext(), q)
	if err != nil {
		return serviceErrorResponse(c, err, "building.map")
	}
	return c.JSON(result)
}

// UpdateBuilding handles PATCH /api/building/:id
// @Summary Update a building
// @Description Partially update a building's own columns. Geometry is not patched.
// @Tags Building
// @Accept json
// @Produce json
// @Param id path int true "Building ID"
// @Param body body services.BuildingPatch true "Fields to change"
// @Success 200 {object} BuildingResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /building/{id} [patch]
func (h *BuildingHandler) UpdateBuilding(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err, "building.update")
	}

	var patch services.BuildingPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.ErrorResponse(c, "Invalid input: "+err.Error(), fiber.StatusBadRequest, "building.update.validation")
	}

	tree, err := h.Service.UpdateBuilding(c.UserContext(), id, patch)
	if err != nil {
		return serviceErrorResponse(c, err, "building.update")
	}

	return c.JSON(BuildingResponse{Message: "Building updated", Building: tree})
}

// DeleteBuilding handles DELETE /api/building/:id
// @Summary Delete a building
// @Description Delete a building and its Object3D subtree. Shared points and faces are kept.
// @Tags Building
// @Produce json
// @Param id path int true "Building ID"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /building/{id} [delete]
func (h *BuildingHandler) DeleteBuilding(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err, "building.delete")
	}

	if err := h.Service.DeleteBuilding(c.UserContext(), id); err != nil {
		return serviceErrorResponse(c, err, "building.delete")
	}

	return c.JSON(utils.MessageResponseStruct{Message: "Building deleted", Ok: true})
}
