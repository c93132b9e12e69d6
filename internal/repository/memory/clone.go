package memory

import (
	"slices"

	"money-coach-be/internal/entity"
)

func cloneSession(s entity.CoachingSession) entity.CoachingSession {
	s.Curiosities = slices.Clone(s.Curiosities)
	if s.Notes != nil {
		notes := *s.Notes
		notes.KeyMoments = slices.Clone(notes.KeyMoments)
		notes.CardsCreated = slices.Clone(notes.CardsCreated)
		s.Notes = &notes
	}
	if s.NarrativeSnapshot != nil {
		snapshot := *s.NarrativeSnapshot
		s.NarrativeSnapshot = &snapshot
	}
	return s
}

func cloneOnboarding(o entity.OnboardingProfile) entity.OnboardingProfile {
	o.Goals = slices.Clone(o.Goals)
	if o.Answers != nil {
		answers := make(map[string]string, len(o.Answers))
		for k, v := range o.Answers {
			answers[k] = v
		}
		o.Answers = answers
	}
	return o
}

func cloneSuggestionSet(s entity.SuggestionSet) entity.SuggestionSet {
	suggestions := make([]entity.Suggestion, len(s.Suggestions))
	for i, sg := range s.Suggestions {
		sg.Curiosities = slices.Clone(sg.Curiosities)
		suggestions[i] = sg
	}
	s.Suggestions = suggestions
	return s
}

func cloneBriefing(b entity.Briefing) entity.Briefing {
	b.Curiosities = slices.Clone(b.Curiosities)
	return b
}

func cloneRun(r entity.SimulatorRun) entity.SimulatorRun {
	if r.CardEvaluation != nil {
		evaluation := *r.CardEvaluation
		evaluation.Categories = make(map[string]int, len(r.CardEvaluation.Categories))
		for k, v := range r.CardEvaluation.Categories {
			evaluation.Categories[k] = v
		}
		r.CardEvaluation = &evaluation
	}
	if r.NumTurns != nil {
		n := *r.NumTurns
		r.NumTurns = &n
	}
	return r
}
