package service

import (
	"money-coach-be/internal/dto"
	"money-coach-be/internal/entity"
)

func toMessageResponse(m *entity.Message) dto.MessageResponse {
	return dto.MessageResponse{
		Id:         m.Id,
		Role:       m.Role,
		Content:    m.Content,
		IsFallback: m.IsFallback,
		CreatedAt:  m.CreatedAt,
	}
}

func toMessageResponses(messages []*entity.Message) []dto.MessageResponse {
	res := make([]dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, toMessageResponse(m))
	}
	return res
}

func toSessionResponse(s *entity.CoachingSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:               s.Id,
		Title:            s.Title,
		Status:           s.Status,
		Notes:            s.Notes,
		Hypothesis:       s.Hypothesis,
		LeveragePoint:    s.LeveragePoint,
		Curiosities:      s.Curiosities,
		OpeningDirection: s.OpeningDirection,
		CreatedAt:        s.CreatedAt,
		CompletedAt:      s.CompletedAt,
	}
}

func toUnderstandingResponse(u *entity.Understanding) *dto.UnderstandingResponse {
	if u == nil {
		return nil
	}
	return &dto.UnderstandingResponse{
		Narrative:            u.Narrative,
		Snippet:              u.Snippet,
		StageOfChange:        u.StageOfChange,
		TensionType:          u.TensionType,
		SecondaryTensionType: u.SecondaryTensionType,
		UpdatedAt:            u.UpdatedAt,
	}
}

func toFocusAreaResponse(f *entity.FocusArea) *dto.FocusAreaResponse {
	reflections := make([]dto.ReflectionResponse, 0, len(f.Reflections))
	for _, r := range f.Reflections {
		reflections = append(reflections, dto.ReflectionResponse{
			SessionId: r.SessionId,
			Date:      r.Date,
			Text:      r.Text,
		})
	}
	return &dto.FocusAreaResponse{
		Id:          f.Id,
		Text:        f.Text,
		Source:      f.Source,
		Reflections: reflections,
	}
}

func toRunResponse(r *entity.SimulatorRun) dto.SimulatorRunResponse {
	return dto.SimulatorRunResponse{
		Id:             r.Id,
		SimProfileId:   r.SimProfileId,
		SessionId:      r.SessionId,
		Mode:           r.Mode,
		NumTurns:       r.NumTurns,
		Status:         r.Status,
		StopReason:     r.StopReason,
		CardEvaluation: r.CardEvaluation,
		ErrorMessage:   r.ErrorMessage,
		CreatedAt:      r.CreatedAt,
		CompletedAt:    r.CompletedAt,
	}
}

func toProfileResponse(p *entity.SimProfile) *dto.SimProfileResponse {
	return &dto.SimProfileResponse{
		Id:               p.Id,
		Name:             p.Name,
		PersonaPrompt:    p.PersonaPrompt,
		ClonedFromUserId: p.ClonedFromUserId,
		CreatedAt:        p.CreatedAt,
	}
}
