package serverutils

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"money-coach-be/pkg/coach"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerMiddleware(t *testing.T) {
	type payload struct {
		Text string `validate:"required"`
	}

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("session: %w", coach.ErrNotFound), 404},
		{"state conflict", coach.ErrStateConflict, 409},
		{"invalid input", coach.ErrInvalidInput, 400},
		{"validation", ValidateRequest(payload{}), 400},
		{"no briefing", fmt.Errorf("%w: model down", coach.ErrNoBriefing), 503},
		{"fiber error", fiber.NewError(fiber.StatusUnauthorized, "nope"), 401},
		{"unknown", fmt.Errorf("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			var body BaseResponse[any]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Code)
			if tt.code == 500 {
				assert.Equal(t, "Internal server error", body.Message)
			}
		})
	}
}

func TestJwtMiddleware(t *testing.T) {
	const secret = "test-secret"
	userId := uuid.New()

	sign := func(claims jwt.MapClaims, key string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
		require.NoError(t, err)
		return s
	}

	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/me", JwtMiddleware(secret), func(ctx *fiber.Ctx) error {
		id, err := UserID(ctx)
		if err != nil {
			return err
		}
		return ctx.SendString(id.String())
	})
	app.Get("/admin", JwtMiddleware(secret), AdminOnly, func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	})

	user := "Bearer " + sign(jwt.MapClaims{"user_id": userId.String()}, secret)
	admin := "Bearer " + sign(jwt.MapClaims{"user_id": userId.String(), "role": RoleAdmin}, secret)

	tests := []struct {
		name   string
		path   string
		header string
		code   int
	}{
		{"valid", "/me", user, 200},
		{"missing", "/me", "", 401},
		{"wrong secret", "/me", "Bearer " + sign(jwt.MapClaims{"user_id": userId.String()}, "other"), 401},
		{"no user id", "/me", "Bearer " + sign(jwt.MapClaims{"sub": "x"}, secret), 401},
		{"admin route as user", "/admin", user, 403},
		{"admin route as admin", "/admin", admin, 204},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}
