package model

// Intent is the fixed set of request kinds the router can produce.
type Intent string

const (
	IntentDailyDigest   Intent = "daily_digest"
	IntentFact          Intent = "fact"
	IntentSourceSummary Intent = "source_summary"
	IntentFeedback      Intent = "feedback"
)

// ParseIntent maps a raw classifier answer onto the intent set. Anything
// outside the set is reported as not ok so the caller can apply the default.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentDailyDigest, IntentFact, IntentSourceSummary, IntentFeedback:
		return Intent(s), true
	}
	return IntentDailyDigest, false
}
