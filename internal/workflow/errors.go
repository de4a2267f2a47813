package workflow

import (
	"errors"

	"kitchen-ai/internal/history"
)

var (
	ErrInvalidTransition    = errors.New("action not available at this step")
	ErrInvalidSelection     = errors.New("invalid selection")
	ErrGenerationFailed     = errors.New("failed to generate meal plan")
	ErrRefreshFailed        = errors.New("failed to refresh meal")
	ErrConsolidationFailed  = errors.New("failed to generate shopping list")
	ErrMealAlreadyCompleted = errors.New("meal already completed")
	ErrMealNotCompleted     = errors.New("meal not completed yet")
	ErrShoppingItemNotFound = errors.New("shopping item not found")
	ErrBusy                 = errors.New("previous request still running")
	// ErrStaleResult means a generation result arrived after the session
	// moved on. It was discarded and nothing needs to be shown.
	ErrStaleResult = errors.New("stale result discarded")
)

// UserMessage turns a workflow error into the text shown to the user.
// Raw error details never reach the conversation. Stale results map to "".
func UserMessage(err error) string {
	switch {
	case err == nil, errors.Is(err, ErrStaleResult):
		return ""
	case errors.Is(err, ErrGenerationFailed):
		return "Sorry, there was an error generating your meal plan. Please try again."
	case errors.Is(err, ErrRefreshFailed):
		return "Sorry, there was an error refreshing that meal. Please try again."
	case errors.Is(err, ErrConsolidationFailed):
		return "Sorry, there was an error generating your shopping list. Please try again."
	case errors.Is(err, ErrMealAlreadyCompleted):
		return "You've already completed that meal. You can still change its rating."
	case errors.Is(err, ErrMealNotCompleted):
		return "Complete that meal first, then you can rate it."
	case errors.Is(err, ErrShoppingItemNotFound):
		return "I couldn't find that item on your shopping list."
	case errors.Is(err, ErrInvalidSelection):
		return "That option isn't available. Please pick one of the choices shown."
	case errors.Is(err, ErrInvalidTransition):
		return "That action isn't available right now."
	case errors.Is(err, ErrBusy):
		return "I'm still working on your last request. One moment!"
	case errors.Is(err, history.ErrNotFound):
		return "I couldn't find that saved week."
	}
	return "Sorry, something went wrong. Please try again."
}

// Canned replies.
const (
	SavedReply    = "Week saved to your history! Great job completing your meal plan. Ready to plan your next week?"
	FreeTextReply = "I understand you'd like help with meal planning! Let me guide you through creating a personalized weekly menu. Would you like to start planning your week?"
)
