package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"money-coach-be/internal/dto"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/pkg/serverutils"
	"money-coach-be/internal/service"
	"money-coach-be/pkg/coach"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "controller-secret"

func token(t *testing.T, userId uuid.UUID, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type fakeCoach struct {
	service.ICoachService
	gotUser uuid.UUID
	gotText string
}

func (f *fakeCoach) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	f.gotUser = userId
	f.gotText = req.Message
	return &dto.SendChatResponse{SessionId: uuid.New(), IsNewSession: true}, nil
}

func (f *fakeCoach) GetSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error) {
	return nil, fmt.Errorf("session %s: %w", sessionId, coach.ErrNotFound)
}

type fakeBackfill struct {
	service.IBackfillService
	calls chan realm.Realm
}

func (f *fakeBackfill) Replay(ctx context.Context, watcherId, userId uuid.UUID) (*dto.BackfillResponse, error) {
	f.calls <- realm.FromContext(ctx)
	return &dto.BackfillResponse{UserId: userId}, nil
}

type fakeSimulator struct {
	service.ISimulatorService
}

func (fakeSimulator) ListProfiles(ctx context.Context) ([]*dto.SimProfileResponse, error) {
	return []*dto.SimProfileResponse{}, nil
}

func newApp(coachSvc service.ICoachService, backfill service.IBackfillService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewCoachController(coachSvc, secret).RegisterRoutes(api)
	NewSimulatorController(fakeSimulator{}, secret).RegisterRoutes(api)
	NewAdminController(backfill, nil, logger.NewNopLogger(), secret).RegisterRoutes(api)
	return app
}

func TestCoachController(t *testing.T) {
	userId := uuid.New()
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   bool
		code   int
	}{
		{"chat", "POST", "/api/coach/v1/chat", `{"message":"I overspent"}`, true, 200},
		{"chat without token", "POST", "/api/coach/v1/chat", `{"message":"hi"}`, false, 401},
		{"chat empty message", "POST", "/api/coach/v1/chat", `{"message":""}`, true, 400},
		{"chat malformed body", "POST", "/api/coach/v1/chat", `{`, true, 400},
		{"session bad id", "GET", "/api/coach/v1/sessions/not-a-uuid", "", true, 400},
		{"session not found", "GET", "/api/coach/v1/sessions/" + uuid.NewString(), "", true, 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeCoach{}
			app := newApp(svc, nil)

			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Content-Type", "application/json")
			if tt.auth {
				req.Header.Set("Authorization", "Bearer "+token(t, userId, "user"))
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			if tt.code == 200 {
				assert.Equal(t, userId, svc.gotUser)
				assert.Equal(t, "I overspent", svc.gotText)

				var res serverutils.BaseResponse[dto.SendChatResponse]
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
				assert.True(t, res.Success)
				assert.True(t, res.Data.IsNewSession)
			}
		})
	}
}

func TestSimulatorController_AdminOnly(t *testing.T) {
	app := newApp(&fakeCoach{}, nil)

	for role, code := range map[string]int{"user": 403, serverutils.RoleAdmin: 200} {
		t.Run(role, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/simulator/v1/profiles", nil)
			req.Header.Set("Authorization", "Bearer "+token(t, uuid.New(), role))

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, code, resp.StatusCode)
		})
	}
}

func TestAdminController_Backfill(t *testing.T) {
	adminToken := token(t, uuid.New(), serverutils.RoleAdmin)

	t.Run("accepted and runs in the requested realm", func(t *testing.T) {
		backfill := &fakeBackfill{calls: make(chan realm.Realm, 1)}
		app := newApp(&fakeCoach{}, backfill)
		userId := uuid.New()

		req := httptest.NewRequest("POST", "/api/admin/v1/users/"+userId.String()+"/backfill?realm=simulation", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

		var res serverutils.BaseResponse[dto.JobAcceptedResponse]
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, service.JobBackfill, res.Data.Job)
		assert.Equal(t, userId, res.Data.UserId)

		select {
		case r := <-backfill.calls:
			assert.Equal(t, realm.Simulation, r)
		case <-time.After(2 * time.Second):
			t.Fatal("backfill job never ran")
		}
	})

	t.Run("unknown realm", func(t *testing.T) {
		app := newApp(&fakeCoach{}, &fakeBackfill{calls: make(chan realm.Realm, 1)})

		req := httptest.NewRequest("POST", "/api/admin/v1/users/"+uuid.NewString()+"/backfill?realm=staging", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
