// common.go
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
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/campusgeo/internal/services"
	"github.com/localnerve/campusgeo/internal/utils"
)

// parseID reads a positive numeric :id route parameter
func parseID(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid building id %q", c.Params("id"))
	}
	return id, nil
}

// queryFloat reads an optional finite float query parameter
func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("query parameter %s must be a number", key)
	}
	return &value, nil
}

// requiredFloat reads a float query parameter that must be present
func requiredFloat(c *fiber.Ctx, key string) (float64, error) {
	value, err := queryFloat(c, key)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return 0, fmt.Errorf("query parameter %s is required", key)
	}
	return *value, nil
}

// queryInt reads an optional integer query parameter
func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("query parameter %s must be an integer", key)
	}
	return &value, nil
}

// serviceErrorResponse maps service error categories to statuses.
// errorType is the route's error type prefix, e.g. "building.create".
func serviceErrorResponse(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, errorType+".validation")
	case errors.Is(err, services.ErrNotFound):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusNotFound, errorType+".notFound")
	case errors.Is(err, services.ErrConflict):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusConflict, errorType+".conflict")
	case errors.Is(err, services.ErrTimeout):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusRequestTimeout, errorType+".timeout")
	}

	log.Printf("%s failed: %v", errorType, err)
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}

// badRequest reports malformed input that never reached a service
func badRequest(c *fiber.Ctx, err error, errorType string) error {
	return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, errorType+".validation")
}
