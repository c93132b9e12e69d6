// Package prompt renders the model prompts used by the coaching engine.
// Every prompt starts with a "TASK: <name>" line naming the call.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"money-coach-be/internal/constant"
	"money-coach-be/internal/entity"
)

const (
	TaskBriefing        = "briefing"
	TaskCoachTurn       = "coach_turn"
	TaskCoachGreeting   = "coach_greeting"
	TaskSessionNotes    = "session_notes"
	TaskEvolve          = "evolve_understanding"
	TaskSeedNarrative   = "seed_understanding"
	TaskSuggestions     = "suggestions"
	TaskSeedSuggestions = "seed_suggestions"
	TaskCardQuickCheck  = "card_quick_check"
	TaskCardClassify    = "card_classify"
	TaskUserAgent       = "user_agent"
)

type builder struct {
	strings.Builder
}

func newBuilder(task string) *builder {
	b := &builder{}
	fmt.Fprintf(b, "TASK: %s\n\n", task)
	return b
}

func (b *builder) section(title, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		body = "(none)"
	}
	fmt.Fprintf(b, "## %s\n%s\n\n", title, body)
}

func (b *builder) list(title string, items []string) {
	var lines []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			lines = append(lines, "- "+item)
		}
	}
	b.section(title, strings.Join(lines, "\n"))
}

func (b *builder) schema(json string) {
	fmt.Fprintf(b, "Respond with a single JSON object of this shape and nothing else:\n%s\n", strings.TrimSpace(json))
}

// Transcript renders messages as "User:"/"Coach:" lines. Fallback replies
// are left out.
func Transcript(messages []*entity.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		if m.IsFallback {
			continue
		}
		speaker := "User"
		if m.Role == constant.MessageRoleAssistant {
			speaker = "Coach"
		}
		fmt.Fprintf(&sb, "%s: %s\n", speaker, strings.TrimSpace(m.Content))
	}
	return strings.TrimSpace(sb.String())
}

func focusAreaTexts(areas []*entity.FocusArea) []string {
	texts := make([]string, 0, len(areas))
	for _, a := range areas {
		texts = append(texts, a.Text)
	}
	return texts
}

func understandingBlock(u *entity.Understanding) string {
	if u == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Narrative: %s\n", u.Narrative)
	if u.StageOfChange != "" {
		fmt.Fprintf(&sb, "Stage of change: %s\n", u.StageOfChange)
	}
	if u.TensionType != "" {
		fmt.Fprintf(&sb, "Tension: %s", u.TensionType)
		if u.SecondaryTensionType != "" {
			fmt.Fprintf(&sb, " (secondary: %s)", u.SecondaryTensionType)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

type BriefingInput struct {
	Understanding *entity.Understanding
	Prior         *entity.Briefing
	Wins          []*entity.Win
	Cards         []*entity.RewireCard
	RecentNotes   []*entity.SessionNotes
	// Classify asks the model for a tension classification as well.
	Classify bool
}

func Briefing(in BriefingInput) string {
	b := newBuilder(TaskBriefing)
	b.WriteString("You are planning the next money coaching session. Produce a plan the coach will follow.\n\n")
	b.section("Understanding of the user", understandingBlock(in.Understanding))
	if in.Prior != nil {
		b.section("Previous plan", fmt.Sprintf("Hypothesis: %s\nLeverage point: %s\nOpening direction: %s",
			in.Prior.Hypothesis, in.Prior.LeveragePoint, in.Prior.OpeningDirection))
	}
	var notes []string
	for _, n := range in.RecentNotes {
		notes = append(notes, fmt.Sprintf("%s: %s", n.Headline, n.Narrative))
	}
	b.list("Recent sessions", notes)
	var wins []string
	for _, w := range in.Wins {
		wins = append(wins, w.Text)
	}
	b.list("Recent wins", wins)
	var cards []string
	for _, c := range in.Cards {
		cards = append(cards, fmt.Sprintf("[%s] %s", c.Category, c.Title))
	}
	b.list("Rewire cards", cards)
	if in.Classify {
		b.schema(`{"hypothesis": "", "leverage_point": "", "curiosities": [""], "opening_direction": "", "tension_type": "", "secondary_tension_type": ""}`)
	} else {
		b.schema(`{"hypothesis": "", "leverage_point": "", "curiosities": [""], "opening_direction": ""}`)
	}
	return b.String()
}

type CoachInput struct {
	Briefing      *entity.Briefing
	Understanding *entity.Understanding
	FocusAreas    []*entity.FocusArea
}

func coachPlan(b *builder, in CoachInput) {
	b.WriteString("You are a warm, curious money coach. Ask one question at a time and keep replies short.\n\n")
	b.section("What you know about the user", understandingBlock(in.Understanding))
	if in.Briefing != nil {
		b.section("Plan for this session", fmt.Sprintf("Hypothesis: %s\nLeverage point: %s\nOpening direction: %s",
			in.Briefing.Hypothesis, in.Briefing.LeveragePoint, in.Briefing.OpeningDirection))
		b.list("Curiosities to explore", in.Briefing.Curiosities)
	}
	b.list("Focus areas", focusAreaTexts(in.FocusAreas))
}

// CoachSystem is the system message for a normal chat turn.
func CoachSystem(in CoachInput) string {
	b := newBuilder(TaskCoachTurn)
	coachPlan(b, in)
	return strings.TrimSpace(b.String())
}

// CoachGreeting is the system message for a coach-first opening turn.
func CoachGreeting(in CoachInput) string {
	b := newBuilder(TaskCoachGreeting)
	coachPlan(b, in)
	b.WriteString("Open the session yourself with a short greeting that follows the opening direction.\n")
	return strings.TrimSpace(b.String())
}

type NotesInput struct {
	Transcript    string
	Understanding *entity.Understanding
	Hypothesis    string
}

func SessionNotes(in NotesInput) string {
	b := newBuilder(TaskSessionNotes)
	b.WriteString("Summarize the coaching session that just ended.\n\n")
	b.section("Understanding going in", understandingBlock(in.Understanding))
	b.section("Session hypothesis", in.Hypothesis)
	b.section("Transcript", in.Transcript)
	b.schema(`{"headline": "", "narrative": "", "key_moments": [""]}`)
	return b.String()
}

type EvolveInput struct {
	Understanding *entity.Understanding
	Transcript    string
	FocusAreas    []*entity.FocusArea
}

func Evolve(in EvolveInput) string {
	b := newBuilder(TaskEvolve)
	b.WriteString("Update the running understanding of this user after the session below. Rewrite the full narrative.\n\n")
	b.section("Current understanding", understandingBlock(in.Understanding))
	b.list("Active focus areas", focusAreaTexts(in.FocusAreas))
	b.section("Transcript", in.Transcript)
	b.schema(`{"narrative": "", "snippet": "", "stage_of_change": "", "focus_area_reflections": [{"focus_area": "", "reflection": ""}]}`)
	return b.String()
}

func onboardingBlock(o *entity.OnboardingProfile) string {
	if o == nil {
		return ""
	}
	var sb strings.Builder
	for q, a := range o.Answers {
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", q, a)
	}
	if len(o.Goals) > 0 {
		fmt.Fprintf(&sb, "Goals: %s\n", strings.Join(o.Goals, "; "))
	}
	return sb.String()
}

func SeedNarrative(o *entity.OnboardingProfile) string {
	b := newBuilder(TaskSeedNarrative)
	b.WriteString("Write a first understanding of this user from their onboarding answers.\n\n")
	b.section("Onboarding", onboardingBlock(o))
	b.schema(`{"narrative": "", "snippet": "", "stage_of_change": ""}`)
	return b.String()
}

type SuggestionsInput struct {
	Understanding  *entity.Understanding
	LatestNotes    *entity.SessionNotes
	Cards          []*entity.RewireCard
	Wins           []*entity.Win
	FocusAreas     []*entity.FocusArea
	PreviousTitles []string
}

const suggestionSchema = `{"suggestions": [{"title": "", "teaser": "", "length": "quick|medium|deep|standing", "hypothesis": "", "leverage_point": "", "curiosities": [""], "opening_direction": "", "opening_message": "", "focus_area_text": ""}]}`

func Suggestions(in SuggestionsInput) string {
	b := newBuilder(TaskSuggestions)
	b.WriteString("Suggest the next coaching conversations this user could start.\n\n")
	b.section("Understanding", understandingBlock(in.Understanding))
	if in.LatestNotes != nil {
		b.section("Latest session", in.LatestNotes.Headline)
		b.list("Key moments", in.LatestNotes.KeyMoments)
	}
	var cards []string
	for _, c := range in.Cards {
		cards = append(cards, c.Title)
	}
	b.list("Rewire cards", cards)
	var wins []string
	for _, w := range in.Wins {
		wins = append(wins, w.Text)
	}
	b.list("Recent wins", wins)
	b.list("Active focus areas", focusAreaTexts(in.FocusAreas))
	b.list("Do not reuse these titles", in.PreviousTitles)
	b.schema(suggestionSchema)
	return b.String()
}

func SeedSuggestions(o *entity.OnboardingProfile) string {
	b := newBuilder(TaskSeedSuggestions)
	b.WriteString("Suggest first coaching conversations from this user's onboarding answers.\n\n")
	b.section("Onboarding", onboardingBlock(o))
	b.schema(suggestionSchema)
	return b.String()
}

func CardQuickCheck(reply string) string {
	b := newBuilder(TaskCardQuickCheck)
	b.WriteString("Does this coach reply contain an insight worth saving as a card?\n\n")
	b.section("Reply", reply)
	b.schema(`{"card_worthy": false}`)
	return b.String()
}

func CardClassify(reply string) string {
	b := newBuilder(TaskCardClassify)
	b.WriteString("Classify this coach reply.\n\n")
	b.section("Reply", reply)
	b.list("Categories", constant.CardCategories)
	b.schema(`{"card_worthy": false, "category": ""}`)
	return b.String()
}

// UserAgent is the system message for the synthetic user in simulations.
func UserAgent(persona string, now time.Time) string {
	b := newBuilder(TaskUserAgent)
	b.WriteString("You are role-playing a person talking to a money coach. Stay in character and reply with only your next message.\n\n")
	b.section("Persona", persona)
	b.section("Today", now.Format("Monday, January 2, 2006"))
	return strings.TrimSpace(b.String())
}
