package service

import (
	"context"
	"fmt"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/dto"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/pkg/coach"
	"money-coach-be/pkg/coach/simulator"

	"github.com/google/uuid"
)

type ISimulatorService interface {
	CreateProfile(ctx context.Context, req *dto.CreateSimProfileRequest) (*dto.SimProfileResponse, error)
	ListProfiles(ctx context.Context) ([]*dto.SimProfileResponse, error)
	ResetProfile(ctx context.Context, profileId uuid.UUID) error
	StartRun(ctx context.Context, req *dto.StartRunRequest) (*dto.SimulatorRunResponse, error)
	// Tick advances the run one exchange and streams the result to watcherId.
	Tick(ctx context.Context, watcherId, runId uuid.UUID, req *dto.TickRequest) (*dto.TickResponse, error)
	// Drive ticks an automated run until it is done.
	Drive(ctx context.Context, watcherId, runId uuid.UUID) (*dto.SimulatorRunResponse, error)
	StopRun(ctx context.Context, runId uuid.UUID) (*dto.SimulatorRunResponse, error)
	ReEvaluate(ctx context.Context, runId uuid.UUID) (*dto.SimulatorRunResponse, error)
	SuggestMessage(ctx context.Context, runId uuid.UUID) (*dto.SuggestMessageResponse, error)
	GetRun(ctx context.Context, runId uuid.UUID) (*dto.SimulatorRunDetailResponse, error)
	ListRuns(ctx context.Context, profileId uuid.UUID) ([]dto.SimulatorRunResponse, error)
}

type simulatorService struct {
	engine *simulator.Engine
	sender EventSender
	logger logger.ILogger
}

func NewSimulatorService(engine *simulator.Engine, sender EventSender, logger logger.ILogger) ISimulatorService {
	return &simulatorService{
		engine: engine,
		sender: sender,
		logger: logger,
	}
}

func (s *simulatorService) CreateProfile(ctx context.Context, req *dto.CreateSimProfileRequest) (*dto.SimProfileResponse, error) {
	profile, err := s.engine.CreateProfile(ctx, simulator.ProfileInput{
		Name:            req.Name,
		PersonaPrompt:   req.PersonaPrompt,
		CloneFromUserId: req.CloneFromUserId,
	})
	if err != nil {
		return nil, err
	}
	return toProfileResponse(profile), nil
}

func (s *simulatorService) ListProfiles(ctx context.Context) ([]*dto.SimProfileResponse, error) {
	profiles, err := s.engine.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.SimProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		res = append(res, toProfileResponse(p))
	}
	return res, nil
}

func (s *simulatorService) ResetProfile(ctx context.Context, profileId uuid.UUID) error {
	return s.engine.ResetProfile(ctx, profileId)
}

func (s *simulatorService) StartRun(ctx context.Context, req *dto.StartRunRequest) (*dto.SimulatorRunResponse, error) {
	run, err := s.engine.Start(ctx, req.ProfileId, req.Mode, req.NumTurns)
	if err != nil {
		return nil, err
	}
	res := toRunResponse(run)
	return &res, nil
}

func (s *simulatorService) Tick(ctx context.Context, watcherId, runId uuid.UUID, req *dto.TickRequest) (*dto.TickResponse, error) {
	result, err := s.engine.Tick(ctx, runId, req.Message)
	if err != nil {
		return nil, err
	}
	res := &dto.TickResponse{
		Run:    toRunResponse(result.Run),
		Done:   result.Done,
		Reason: result.Reason,
	}
	if result.Greeting != nil {
		m := toMessageResponse(result.Greeting)
		res.Greeting = &m
	}
	if result.UserMessage != nil {
		m := toMessageResponse(result.UserMessage)
		res.UserMessage = &m
	}
	if result.AssistantMessage != nil {
		m := toMessageResponse(result.AssistantMessage)
		res.AssistantMessage = &m
	}
	if watcherId != uuid.Nil {
		s.sender.SendEvent(watcherId, EventSimulatorTick, res)
	}
	return res, nil
}

func (s *simulatorService) Drive(ctx context.Context, watcherId, runId uuid.UUID) (*dto.SimulatorRunResponse, error) {
	run, _, err := s.engine.GetRun(ctx, runId)
	if err != nil {
		return nil, err
	}
	if run.Mode == constant.RunModeManual {
		return nil, fmt.Errorf("%w: manual runs advance only with typed messages", coach.ErrInvalidInput)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.Tick(ctx, watcherId, runId, &dto.TickRequest{})
		if err != nil {
			return nil, err
		}
		if res.Done {
			s.logger.Info(logger.ModuleSimulator, "Run driven to completion", map[string]interface{}{
				"run_id": runId.String(),
				"status": res.Run.Status,
				"reason": res.Reason,
			})
			return &res.Run, nil
		}
	}
}

func (s *simulatorService) StopRun(ctx context.Context, runId uuid.UUID) (*dto.SimulatorRunResponse, error) {
	run, err := s.engine.Stop(ctx, runId)
	if err != nil {
		return nil, err
	}
	res := toRunResponse(run)
	return &res, nil
}

func (s *simulatorService) ReEvaluate(ctx context.Context, runId uuid.UUID) (*dto.SimulatorRunResponse, error) {
	run, err := s.engine.ReEvaluate(ctx, runId)
	if err != nil {
		return nil, err
	}
	res := toRunResponse(run)
	return &res, nil
}

func (s *simulatorService) SuggestMessage(ctx context.Context, runId uuid.UUID) (*dto.SuggestMessageResponse, error) {
	text, err := s.engine.SuggestMessage(ctx, runId)
	if err != nil {
		return nil, err
	}
	return &dto.SuggestMessageResponse{Message: text}, nil
}

func (s *simulatorService) GetRun(ctx context.Context, runId uuid.UUID) (*dto.SimulatorRunDetailResponse, error) {
	run, messages, err := s.engine.GetRun(ctx, runId)
	if err != nil {
		return nil, err
	}
	return &dto.SimulatorRunDetailResponse{
		Run:      toRunResponse(run),
		Messages: toMessageResponses(messages),
	}, nil
}

func (s *simulatorService) ListRuns(ctx context.Context, profileId uuid.UUID) ([]dto.SimulatorRunResponse, error) {
	runs, err := s.engine.ListRuns(ctx, profileId)
	if err != nil {
		return nil, err
	}
	res := make([]dto.SimulatorRunResponse, 0, len(runs))
	for _, r := range runs {
		res = append(res, toRunResponse(r))
	}
	return res, nil
}
