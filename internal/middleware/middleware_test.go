package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/campusgeo/internal/types"
)

func TestRequestDeadline(t *testing.T) {
	app := fiber.New()
	app.Use(RequestDeadline(50 * time.Millisecond))
	app.Get("/", func(c *fiber.Ctx) error {
		deadline, ok := c.UserContext().Deadline()
		if !ok {
			return c.Status(fiber.StatusInternalServerError).SendString("no deadline")
		}
		if time.Until(deadline) > 50*time.Millisecond {
			return c.Status(fiber.StatusInternalServerError).SendString("deadline too far")
		}
		<-c.UserContext().Done()
		if !errors.Is(c.UserContext().Err(), context.DeadlineExceeded) {
			return c.Status(fiber.StatusInternalServerError).SendString("not cancelled")
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), 2000)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("requestid").(string))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if id := resp.Header.Get(fiber.HeaderXRequestID); len(id) != 36 {
		t.Errorf("Expected a UUID request id, got %q", id)
	}
}

func TestAuthorizeWithoutCookie(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var custom *types.CustomError
			if errors.As(err, &custom) {
				return c.Status(custom.Code).SendString(custom.Type)
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	app.Post("/", func(c *fiber.Ctx) error {
		return authorize(c, []string{"admin"}, "building.authorization.admin")
	}, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.StatusCode)
	}
}
