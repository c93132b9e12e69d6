package mapper

import (
	"time"

	"money-coach-be/internal/entity"
	"money-coach-be/internal/model"

	"gorm.io/datatypes"
)

type CoachMapper struct{}

func NewCoachMapper() *CoachMapper {
	return &CoachMapper{}
}

func updatedAtPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func updatedAtValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// Session Mappers

func (m *CoachMapper) SessionToEntity(s *model.CoachingSession) *entity.CoachingSession {
	if s == nil {
		return nil
	}

	var notes *entity.SessionNotes
	if s.Notes != nil {
		n := s.Notes.Data()
		notes = &entity.SessionNotes{
			Headline:     n.Headline,
			Narrative:    n.Narrative,
			KeyMoments:   n.KeyMoments,
			CardsCreated: n.CardsCreated,
		}
	}

	return &entity.CoachingSession{
		Id:                s.Id,
		UserId:            s.UserId,
		Title:             s.Title,
		Status:            s.Status,
		Notes:             notes,
		Hypothesis:        s.Hypothesis,
		LeveragePoint:     s.LeveragePoint,
		Curiosities:       []string(s.Curiosities),
		OpeningDirection:  s.OpeningDirection,
		NarrativeSnapshot: s.NarrativeSnapshot,
		FocusAreaId:       s.FocusAreaId,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         updatedAtPtr(s.UpdatedAt),
		CompletedAt:       s.CompletedAt,
	}
}

func (m *CoachMapper) SessionToModel(s *entity.CoachingSession) *model.CoachingSession {
	if s == nil {
		return nil
	}

	var notes *datatypes.JSONType[model.NotesColumn]
	if s.Notes != nil {
		j := datatypes.NewJSONType(model.NotesColumn{
			Headline:     s.Notes.Headline,
			Narrative:    s.Notes.Narrative,
			KeyMoments:   s.Notes.KeyMoments,
			CardsCreated: s.Notes.CardsCreated,
		})
		notes = &j
	}

	return &model.CoachingSession{
		Id:                s.Id,
		UserId:            s.UserId,
		Title:             s.Title,
		Status:            s.Status,
		Notes:             notes,
		Hypothesis:        s.Hypothesis,
		LeveragePoint:     s.LeveragePoint,
		Curiosities:       datatypes.JSONSlice[string](s.Curiosities),
		OpeningDirection:  s.OpeningDirection,
		NarrativeSnapshot: s.NarrativeSnapshot,
		FocusAreaId:       s.FocusAreaId,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         updatedAtValue(s.UpdatedAt),
		CompletedAt:       s.CompletedAt,
	}
}

// Message Mappers

func (m *CoachMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:         msg.Id,
		SessionId:  msg.SessionId,
		UserId:     msg.UserId,
		Role:       msg.Role,
		Content:    msg.Content,
		IsFallback: msg.IsFallback,
		Seq:        msg.Seq,
		CreatedAt:  msg.CreatedAt,
	}
}

func (m *CoachMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:         msg.Id,
		SessionId:  msg.SessionId,
		UserId:     msg.UserId,
		Role:       msg.Role,
		Content:    msg.Content,
		IsFallback: msg.IsFallback,
		Seq:        msg.Seq,
		CreatedAt:  msg.CreatedAt,
	}
}

func (m *CoachMapper) MessagesToEntities(models []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(models))
	for i, msg := range models {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}

// Understanding Mappers

func (m *CoachMapper) UnderstandingToEntity(u *model.Understanding) *entity.Understanding {
	if u == nil {
		return nil
	}
	return &entity.Understanding{
		Id:                    u.Id,
		UserId:                u.UserId,
		Narrative:             u.Narrative,
		Snippet:               u.Snippet,
		StageOfChange:         u.StageOfChange,
		TensionType:           u.TensionType,
		SecondaryTensionType:  u.SecondaryTensionType,
		EvolvedAfterSessionId: u.EvolvedAfterSessionId,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             updatedAtPtr(u.UpdatedAt),
	}
}

func (m *CoachMapper) UnderstandingToModel(u *entity.Understanding) *model.Understanding {
	if u == nil {
		return nil
	}
	return &model.Understanding{
		Id:                    u.Id,
		UserId:                u.UserId,
		Narrative:             u.Narrative,
		Snippet:               u.Snippet,
		StageOfChange:         u.StageOfChange,
		TensionType:           u.TensionType,
		SecondaryTensionType:  u.SecondaryTensionType,
		EvolvedAfterSessionId: u.EvolvedAfterSessionId,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             updatedAtValue(u.UpdatedAt),
	}
}

func (m *CoachMapper) OnboardingToEntity(o *model.OnboardingProfile) *entity.OnboardingProfile {
	if o == nil {
		return nil
	}
	answers := make(map[string]string, len(o.Answers))
	for k, v := range o.Answers {
		if s, ok := v.(string); ok {
			answers[k] = s
		}
	}
	return &entity.OnboardingProfile{
		Id:        o.Id,
		UserId:    o.UserId,
		Answers:   answers,
		Goals:     []string(o.Goals),
		CreatedAt: o.CreatedAt,
	}
}

func (m *CoachMapper) OnboardingToModel(o *entity.OnboardingProfile) *model.OnboardingProfile {
	if o == nil {
		return nil
	}
	answers := make(datatypes.JSONMap, len(o.Answers))
	for k, v := range o.Answers {
		answers[k] = v
	}
	return &model.OnboardingProfile{
		Id:        o.Id,
		UserId:    o.UserId,
		Answers:   answers,
		Goals:     datatypes.JSONSlice[string](o.Goals),
		CreatedAt: o.CreatedAt,
	}
}

// Focus Area Mappers

func (m *CoachMapper) FocusAreaToEntity(f *model.FocusArea) *entity.FocusArea {
	if f == nil {
		return nil
	}
	reflections := make([]entity.FocusAreaReflection, 0, len(f.Reflections))
	for i := range f.Reflections {
		reflections = append(reflections, *m.ReflectionToEntity(&f.Reflections[i]))
	}
	return &entity.FocusArea{
		Id:          f.Id,
		UserId:      f.UserId,
		Text:        f.Text,
		Source:      f.Source,
		ArchivedAt:  f.ArchivedAt,
		Reflections: reflections,
		CreatedAt:   f.CreatedAt,
	}
}

func (m *CoachMapper) FocusAreaToModel(f *entity.FocusArea) *model.FocusArea {
	if f == nil {
		return nil
	}
	return &model.FocusArea{
		Id:         f.Id,
		UserId:     f.UserId,
		Text:       f.Text,
		Source:     f.Source,
		ArchivedAt: f.ArchivedAt,
		CreatedAt:  f.CreatedAt,
	}
}

func (m *CoachMapper) ReflectionToEntity(r *model.FocusAreaReflection) *entity.FocusAreaReflection {
	if r == nil {
		return nil
	}
	return &entity.FocusAreaReflection{
		Id:          r.Id,
		FocusAreaId: r.FocusAreaId,
		SessionId:   r.SessionId,
		Date:        r.Date,
		Text:        r.Text,
		CreatedAt:   r.CreatedAt,
	}
}

func (m *CoachMapper) ReflectionToModel(r *entity.FocusAreaReflection) *model.FocusAreaReflection {
	if r == nil {
		return nil
	}
	return &model.FocusAreaReflection{
		Id:          r.Id,
		FocusAreaId: r.FocusAreaId,
		SessionId:   r.SessionId,
		Date:        r.Date,
		Text:        r.Text,
		CreatedAt:   r.CreatedAt,
	}
}

// Suggestion Mappers

func (m *CoachMapper) SuggestionSetToEntity(s *model.SuggestionSet) *entity.SuggestionSet {
	if s == nil {
		return nil
	}
	suggestions := make([]entity.Suggestion, len(s.Suggestions))
	for i, c := range s.Suggestions {
		suggestions[i] = entity.Suggestion(c)
	}
	return &entity.SuggestionSet{
		Id:                      s.Id,
		UserId:                  s.UserId,
		Suggestions:             suggestions,
		GeneratedAfterSessionId: s.GeneratedAfterSessionId,
		CreatedAt:               s.CreatedAt,
	}
}

func (m *CoachMapper) SuggestionSetToModel(s *entity.SuggestionSet) *model.SuggestionSet {
	if s == nil {
		return nil
	}
	columns := make([]model.SuggestionColumn, len(s.Suggestions))
	for i, sg := range s.Suggestions {
		columns[i] = model.SuggestionColumn(sg)
	}
	return &model.SuggestionSet{
		Id:                      s.Id,
		UserId:                  s.UserId,
		Suggestions:             datatypes.JSONSlice[model.SuggestionColumn](columns),
		GeneratedAfterSessionId: s.GeneratedAfterSessionId,
		CreatedAt:               s.CreatedAt,
	}
}

// Briefing Mappers

func (m *CoachMapper) BriefingToEntity(b *model.Briefing) *entity.Briefing {
	if b == nil {
		return nil
	}
	return &entity.Briefing{
		Id:                   b.Id,
		UserId:               b.UserId,
		Hypothesis:           b.Hypothesis,
		LeveragePoint:        b.LeveragePoint,
		Curiosities:          []string(b.Curiosities),
		OpeningDirection:     b.OpeningDirection,
		TensionType:          b.TensionType,
		SecondaryTensionType: b.SecondaryTensionType,
		CreatedAt:            b.CreatedAt,
	}
}

func (m *CoachMapper) BriefingToModel(b *entity.Briefing) *model.Briefing {
	if b == nil {
		return nil
	}
	return &model.Briefing{
		Id:                   b.Id,
		UserId:               b.UserId,
		Hypothesis:           b.Hypothesis,
		LeveragePoint:        b.LeveragePoint,
		Curiosities:          datatypes.JSONSlice[string](b.Curiosities),
		OpeningDirection:     b.OpeningDirection,
		TensionType:          b.TensionType,
		SecondaryTensionType: b.SecondaryTensionType,
		CreatedAt:            b.CreatedAt,
	}
}

// Card & Win Mappers

func (m *CoachMapper) RewireCardToEntity(c *model.RewireCard) *entity.RewireCard {
	if c == nil {
		return nil
	}
	return &entity.RewireCard{
		Id:        c.Id,
		UserId:    c.UserId,
		SessionId: c.SessionId,
		Category:  c.Category,
		Title:     c.Title,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func (m *CoachMapper) RewireCardToModel(c *entity.RewireCard) *model.RewireCard {
	if c == nil {
		return nil
	}
	return &model.RewireCard{
		Id:        c.Id,
		UserId:    c.UserId,
		SessionId: c.SessionId,
		Category:  c.Category,
		Title:     c.Title,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func (m *CoachMapper) WinToEntity(w *model.Win) *entity.Win {
	if w == nil {
		return nil
	}
	return &entity.Win{
		Id:        w.Id,
		UserId:    w.UserId,
		SessionId: w.SessionId,
		Text:      w.Text,
		CreatedAt: w.CreatedAt,
	}
}

func (m *CoachMapper) WinToModel(w *entity.Win) *model.Win {
	if w == nil {
		return nil
	}
	return &model.Win{
		Id:        w.Id,
		UserId:    w.UserId,
		SessionId: w.SessionId,
		Text:      w.Text,
		CreatedAt: w.CreatedAt,
	}
}

// Simulator Mappers

func (m *CoachMapper) SimProfileToEntity(p *model.SimProfile) *entity.SimProfile {
	if p == nil {
		return nil
	}
	return &entity.SimProfile{
		Id:               p.Id,
		Name:             p.Name,
		PersonaPrompt:    p.PersonaPrompt,
		ClonedFromUserId: p.ClonedFromUserId,
		CreatedAt:        p.CreatedAt,
	}
}

func (m *CoachMapper) SimProfileToModel(p *entity.SimProfile) *model.SimProfile {
	if p == nil {
		return nil
	}
	return &model.SimProfile{
		Id:               p.Id,
		Name:             p.Name,
		PersonaPrompt:    p.PersonaPrompt,
		ClonedFromUserId: p.ClonedFromUserId,
		CreatedAt:        p.CreatedAt,
	}
}

func (m *CoachMapper) SimulatorRunToEntity(r *model.SimulatorRun) *entity.SimulatorRun {
	if r == nil {
		return nil
	}
	var eval *entity.CardEvaluation
	if r.CardEvaluation != nil {
		e := entity.CardEvaluation(r.CardEvaluation.Data())
		eval = &e
	}
	return &entity.SimulatorRun{
		Id:             r.Id,
		SimProfileId:   r.SimProfileId,
		SessionId:      r.SessionId,
		Mode:           r.Mode,
		NumTurns:       r.NumTurns,
		Status:         r.Status,
		StopReason:     r.StopReason,
		CardEvaluation: eval,
		ErrorMessage:   r.ErrorMessage,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      updatedAtPtr(r.UpdatedAt),
		CompletedAt:    r.CompletedAt,
	}
}

func (m *CoachMapper) SimulatorRunToModel(r *entity.SimulatorRun) *model.SimulatorRun {
	if r == nil {
		return nil
	}
	var eval *datatypes.JSONType[model.CardEvaluationColumn]
	if r.CardEvaluation != nil {
		j := datatypes.NewJSONType(model.CardEvaluationColumn(*r.CardEvaluation))
		eval = &j
	}
	return &model.SimulatorRun{
		Id:             r.Id,
		SimProfileId:   r.SimProfileId,
		SessionId:      r.SessionId,
		Mode:           r.Mode,
		NumTurns:       r.NumTurns,
		Status:         r.Status,
		StopReason:     r.StopReason,
		CardEvaluation: eval,
		ErrorMessage:   r.ErrorMessage,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      updatedAtValue(r.UpdatedAt),
		CompletedAt:    r.CompletedAt,
	}
}
