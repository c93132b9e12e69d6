package controller

import (
	"money-coach-be/internal/dto"
	"money-coach-be/internal/pkg/serverutils"
	"money-coach-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICoachController interface {
	RegisterRoutes(r fiber.Router)
	SendChat(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	ShowSession(ctx *fiber.Ctx) error
	CloseSession(ctx *fiber.Ctx) error
	GetUnderstanding(ctx *fiber.Ctx) error
	GetFocusAreas(ctx *fiber.Ctx) error
	CreateFocusArea(ctx *fiber.Ctx) error
	ArchiveFocusArea(ctx *fiber.Ctx) error
	GetSuggestions(ctx *fiber.Ctx) error
	SaveOnboarding(ctx *fiber.Ctx) error
}

type coachController struct {
	service   service.ICoachService
	jwtSecret string
}

func NewCoachController(service service.ICoachService, jwtSecret string) ICoachController {
	return &coachController{service: service, jwtSecret: jwtSecret}
}

func (c *coachController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/coach/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/chat", c.SendChat)
	h.Get("/sessions", c.ListSessions)
	h.Get("/sessions/:id", c.ShowSession)
	h.Post("/sessions/:id/close", c.CloseSession)
	h.Get("/understanding", c.GetUnderstanding)
	h.Get("/focus-areas", c.GetFocusAreas)
	h.Post("/focus-areas", c.CreateFocusArea)
	h.Delete("/focus-areas/:id", c.ArchiveFocusArea)
	h.Get("/suggestions", c.GetSuggestions)
	h.Put("/onboarding", c.SaveOnboarding)
}

// SendChat answers once the full reply is stored; deltas go out over the
// websocket while it is generated.
func (c *coachController) SendChat(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendChat(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *coachController) ListSessions(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.ListSessions(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get sessions", res))
}

func (c *coachController) ShowSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.GetSession(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *coachController) CloseSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.CloseSession(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success close session", res))
}

func (c *coachController) GetUnderstanding(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.GetUnderstanding(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get understanding", res))
}

func (c *coachController) GetFocusAreas(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.GetFocusAreas(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get focus areas", res))
}

func (c *coachController) CreateFocusArea(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateFocusAreaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateFocusArea(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create focus area", res))
}

func (c *coachController) ArchiveFocusArea(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return err
	}
	if err := c.service.ArchiveFocusArea(ctx.UserContext(), userId, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success archive focus area", nil))
}

func (c *coachController) GetSuggestions(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.GetSuggestions(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get suggestions", res))
}

func (c *coachController) SaveOnboarding(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SaveOnboardingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.SaveOnboarding(ctx.UserContext(), userId, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success save onboarding", nil))
}
