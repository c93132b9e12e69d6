package dto

import (
	"time"

	"money-coach-be/internal/entity"

	"github.com/google/uuid"
)

type SendChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type MessageResponse struct {
	Id         uuid.UUID `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	IsFallback bool      `json:"is_fallback"`
	CreatedAt  time.Time `json:"created_at"`
}

type SendChatResponse struct {
	SessionId    uuid.UUID `json:"session_id"`
	IsNewSession bool      `json:"is_new_session"`
	// HoursSinceLastMessage is nil for a user's first message.
	HoursSinceLastMessage *float64        `json:"hours_since_last_message"`
	ClosedSessionId       *uuid.UUID      `json:"closed_session_id,omitempty"`
	UserMessage           MessageResponse `json:"user_message"`
	AssistantMessage      MessageResponse `json:"assistant_message"`
}

type SessionResponse struct {
	Id               uuid.UUID            `json:"id"`
	Title            string               `json:"title"`
	Status           string               `json:"status"`
	Notes            *entity.SessionNotes `json:"notes"`
	Hypothesis       string               `json:"hypothesis"`
	LeveragePoint    string               `json:"leverage_point"`
	Curiosities      []string             `json:"curiosities"`
	OpeningDirection string               `json:"opening_direction"`
	CreatedAt        time.Time            `json:"created_at"`
	CompletedAt      *time.Time           `json:"completed_at"`
}

type SessionDetailResponse struct {
	SessionResponse
	Messages []MessageResponse `json:"messages"`
}

type UnderstandingResponse struct {
	Narrative            string     `json:"narrative"`
	Snippet              string     `json:"snippet"`
	StageOfChange        string     `json:"stage_of_change"`
	TensionType          string     `json:"tension_type"`
	SecondaryTensionType string     `json:"secondary_tension_type"`
	UpdatedAt            *time.Time `json:"updated_at"`
}

type ReflectionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Date      time.Time `json:"date"`
	Text      string    `json:"text"`
}

type FocusAreaResponse struct {
	Id          uuid.UUID            `json:"id"`
	Text        string               `json:"text"`
	Source      string               `json:"source"`
	Reflections []ReflectionResponse `json:"reflections"`
}

type CreateFocusAreaRequest struct {
	Text string `json:"text" validate:"required,max=200"`
}

type SuggestionSetResponse struct {
	Suggestions             []entity.Suggestion `json:"suggestions"`
	GeneratedAfterSessionId *uuid.UUID          `json:"generated_after_session_id"`
	CreatedAt               time.Time           `json:"created_at"`
}

type SaveOnboardingRequest struct {
	Answers map[string]string `json:"answers" validate:"required,min=1"`
	Goals   []string          `json:"goals" validate:"dive,required"`
}
