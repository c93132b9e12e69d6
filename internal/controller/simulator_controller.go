package controller

import (
	"money-coach-be/internal/dto"
	"money-coach-be/internal/pkg/serverutils"
	"money-coach-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISimulatorController interface {
	RegisterRoutes(r fiber.Router)
}

type simulatorController struct {
	service   service.ISimulatorService
	jwtSecret string
}

func NewSimulatorController(service service.ISimulatorService, jwtSecret string) ISimulatorController {
	return &simulatorController{service: service, jwtSecret: jwtSecret}
}

func (c *simulatorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/simulator/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret), serverutils.AdminOnly)
	h.Get("/profiles", c.ListProfiles)
	h.Post("/profiles", c.CreateProfile)
	h.Post("/profiles/:id/reset", c.ResetProfile)
	h.Get("/profiles/:id/runs", c.ListRuns)
	h.Post("/runs", c.StartRun)
	h.Get("/runs/:id", c.ShowRun)
	h.Post("/runs/:id/tick", c.Tick)
	h.Post("/runs/:id/stop", c.Stop)
	h.Post("/runs/:id/evaluate", c.ReEvaluate)
	h.Get("/runs/:id/suggest", c.SuggestMessage)
}

func (c *simulatorController) ListProfiles(ctx *fiber.Ctx) error {
	res, err := c.service.ListProfiles(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get profiles", res))
}

func (c *simulatorController) CreateProfile(ctx *fiber.Ctx) error {
	var req dto.CreateSimProfileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateProfile(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create profile", res))
}

func (c *simulatorController) ResetProfile(ctx *fiber.Ctx) error {
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	if err := c.service.ResetProfile(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset profile", nil))
}

func (c *simulatorController) ListRuns(ctx *fiber.Ctx) error {
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.ListRuns(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get runs", res))
}

func (c *simulatorController) StartRun(ctx *fiber.Ctx) error {
	var req dto.StartRunRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.StartRun(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success start run", res))
}

func (c *simulatorController) ShowRun(ctx *fiber.Ctx) error {
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.GetRun(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show run", res))
}

// Tick is driven by one client at a time per run.
func (c *simulatorController) Tick(ctx *fiber.Ctx) error {
	watcherId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.TickRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Tick(ctx.UserContext(), watcherId, id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success tick run", res))
}

func (c *simulatorController) Stop(ctx *fiber.Ctx) error {
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.StopRun(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success stop run", res))
}

func (c *simulatorController) ReEvaluate(ctx *fiber.Ctx) error {
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.ReEvaluate(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success evaluate run", res))
}

func (c *simulatorController) SuggestMessage(ctx *fiber.Ctx) error {
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.SuggestMessage(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success suggest message", res))
}
