package dto

import (
	"github.com/google/uuid"
)

// ProgressFrame is streamed over the websocket while a batch job runs.
type ProgressFrame struct {
	Job       string    `json:"job"`
	UserId    uuid.UUID `json:"user_id"`
	Stage     string    `json:"stage"`
	SessionId uuid.UUID `json:"session_id,omitempty"`
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	Error     string    `json:"error,omitempty"`
}

type BackfillResponse struct {
	UserId            uuid.UUID              `json:"user_id"`
	SessionsProcessed int                    `json:"sessions_processed"`
	Failed            int                    `json:"failed"`
	Understanding     *UnderstandingResponse `json:"understanding"`
}

type SplitResponse struct {
	UserId  uuid.UUID `json:"user_id"`
	Groups  int       `json:"groups"`
	Created int       `json:"created"`
	Emptied int       `json:"emptied"`
}

type JobAcceptedResponse struct {
	Job    string    `json:"job"`
	UserId uuid.UUID `json:"user_id"`
}
