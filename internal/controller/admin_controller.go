package controller

import (
	"context"
	"fmt"

	"money-coach-be/internal/dto"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/pkg/realm"
	"money-coach-be/internal/pkg/serverutils"
	"money-coach-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
}

type adminController struct {
	backfill  service.IBackfillService
	sweeper   service.ISweeperService
	logger    logger.ILogger
	jwtSecret string
}

func NewAdminController(backfill service.IBackfillService, sweeper service.ISweeperService, logger logger.ILogger, jwtSecret string) IAdminController {
	return &adminController{
		backfill:  backfill,
		sweeper:   sweeper,
		logger:    logger,
		jwtSecret: jwtSecret,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret), serverutils.AdminOnly)
	h.Post("/users/:id/backfill", c.Backfill)
	h.Post("/users/:id/split", c.Split)
	h.Post("/sessions/sweep", c.Sweep)
}

// jobContext detaches the job from the request and applies the ?realm=
// query parameter.
func jobContext(ctx *fiber.Ctx) (context.Context, error) {
	jobCtx := context.WithoutCancel(ctx.UserContext())
	if raw := ctx.Query("realm"); raw != "" {
		r := realm.Realm(raw)
		if !r.Valid() {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid realm %q", raw))
		}
		jobCtx = realm.WithRealm(jobCtx, r)
	}
	return jobCtx, nil
}

// Backfill starts a replay and returns immediately. Progress and the result
// arrive over the caller's websocket.
func (c *adminController) Backfill(ctx *fiber.Ctx) error {
	watcherId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	userId, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	jobCtx, err := jobContext(ctx)
	if err != nil {
		return err
	}

	go c.run(service.JobBackfill, userId, func() error {
		_, err := c.backfill.Replay(jobCtx, watcherId, userId)
		return err
	})
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Backfill started", dto.JobAcceptedResponse{
		Job:    service.JobBackfill,
		UserId: userId,
	}))
}

func (c *adminController) Split(ctx *fiber.Ctx) error {
	watcherId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	userId, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	jobCtx, err := jobContext(ctx)
	if err != nil {
		return err
	}

	go c.run(service.JobSplit, userId, func() error {
		_, err := c.backfill.Split(jobCtx, watcherId, userId)
		return err
	})
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Split started", dto.JobAcceptedResponse{
		Job:    service.JobSplit,
		UserId: userId,
	}))
}

func (c *adminController) Sweep(ctx *fiber.Ctx) error {
	closed, err := c.sweeper.Sweep(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success sweep sessions", fiber.Map{"closed": closed}))
}

func (c *adminController) run(job string, userId uuid.UUID, fn func() error) {
	if err := fn(); err != nil {
		c.logger.Error(logger.ModuleBackfill, "Admin job failed", map[string]interface{}{
			"job":     job,
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	}
}
