package booking

import "fmt"

// Kind tags an expected business-rule outcome. Callers branch on the kind;
// the message is safe to show to members as-is.
type Kind string

const (
	KindCourtConflict       Kind = "court"
	KindBlockedConflict     Kind = "blocked"
	KindCoachConflict       Kind = "coach"
	KindInsufficientCredits Kind = "insufficient_credits"
	KindScopeRequired       Kind = "scope_required"
	KindInvalidInterval     Kind = "invalid_interval"
	KindBookingNotFound     Kind = "booking_not_found"
	KindRuleNotFound        Kind = "rule_not_found"
	KindTemplateNotFound    Kind = "template_not_found"
)

// Failure is a recoverable business outcome, as opposed to a storage or
// programming error. It satisfies error so it flows through the usual return
// path; callers pick it out with errors.As.
type Failure struct {
	Kind    Kind
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

func failf(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
