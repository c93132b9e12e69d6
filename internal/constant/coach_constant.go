package constant

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"

	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"

	FocusAreaSourceOnboarding = "onboarding"
	FocusAreaSourceCoach      = "coach"
	FocusAreaSourceUser       = "user"

	SuggestionLengthQuick    = "quick"
	SuggestionLengthMedium   = "medium"
	SuggestionLengthDeep     = "deep"
	SuggestionLengthStanding = "standing"

	RunModeAutomated = "automated"
	RunModeManual    = "manual"

	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"

	StopReasonMaxTurns   = "max_turns"
	StopReasonCardWorthy = "card_worthy"
	StopReasonError      = "error"
	StopReasonManual     = "manual"

	CardCategoryReframe         = "reframe"
	CardCategoryTruth           = "truth"
	CardCategoryPlan            = "plan"
	CardCategoryPractice        = "practice"
	CardCategoryConversationKit = "conversation_kit"

	// HistoryWindow bounds the messages sent to the model for one turn.
	HistoryWindow = 50

	// DefaultSimulatorTurns applies when an automated run does not set numTurns.
	DefaultSimulatorTurns = 10

	// Card-worthiness is not checked before this turn index.
	CardCheckMinTurnIndex = 2

	FallbackReply = "I'm having trouble connecting right now. Give me a moment and try again."
)

// CardCategories is the fixed category set used by run evaluation.
var CardCategories = []string{
	CardCategoryReframe,
	CardCategoryTruth,
	CardCategoryPlan,
	CardCategoryPractice,
	CardCategoryConversationKit,
}

func IsCardCategory(category string) bool {
	for _, c := range CardCategories {
		if c == category {
			return true
		}
	}
	return false
}
