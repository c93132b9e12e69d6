package dto

import (
	"time"

	"money-coach-be/internal/entity"

	"github.com/google/uuid"
)

type CreateSimProfileRequest struct {
	Name            string     `json:"name" validate:"required,max=100" yaml:"name"`
	PersonaPrompt   string     `json:"persona_prompt" validate:"required" yaml:"persona_prompt"`
	CloneFromUserId *uuid.UUID `json:"clone_from_user_id" yaml:"clone_from_user_id"`
}

type SimProfileResponse struct {
	Id               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	PersonaPrompt    string     `json:"persona_prompt"`
	ClonedFromUserId *uuid.UUID `json:"cloned_from_user_id"`
	CreatedAt        time.Time  `json:"created_at"`
}

type StartRunRequest struct {
	ProfileId uuid.UUID `json:"profile_id" validate:"required"`
	Mode      string    `json:"mode" validate:"required,oneof=automated manual"`
	NumTurns  *int      `json:"num_turns" validate:"omitempty,min=1,max=50"`
}

type TickRequest struct {
	// Message is required for manual runs and ignored for automated ones.
	Message string `json:"message" validate:"max=4000"`
}

type SimulatorRunResponse struct {
	Id             uuid.UUID              `json:"id"`
	SimProfileId   uuid.UUID              `json:"sim_profile_id"`
	SessionId      uuid.UUID              `json:"session_id"`
	Mode           string                 `json:"mode"`
	NumTurns       *int                   `json:"num_turns"`
	Status         string                 `json:"status"`
	StopReason     string                 `json:"stop_reason,omitempty"`
	CardEvaluation *entity.CardEvaluation `json:"card_evaluation"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	CompletedAt    *time.Time             `json:"completed_at"`
}

type TickResponse struct {
	Run              SimulatorRunResponse `json:"run"`
	Greeting         *MessageResponse     `json:"greeting,omitempty"`
	UserMessage      *MessageResponse     `json:"user_message"`
	AssistantMessage *MessageResponse     `json:"assistant_message"`
	Done             bool                 `json:"done"`
	Reason           string               `json:"reason,omitempty"`
}

type SimulatorRunDetailResponse struct {
	Run      SimulatorRunResponse `json:"run"`
	Messages []MessageResponse    `json:"messages"`
}

type SuggestMessageResponse struct {
	Message string `json:"message"`
}
