package domain

// Intent is a coarse classification of what a question seeks, used to bias
// ranking (e.g. DECISION favors chunks near the end of a ruling).
type Intent string

const (
	IntentDecision   Intent = "DECISION"
	IntentParties    Intent = "PARTIES"
	IntentFacts      Intent = "FACTS"
	IntentLegalBasis Intent = "LEGAL_BASIS"
	IntentAmount     Intent = "AMOUNT"
	IntentGeneral    Intent = "GENERAL"
)

// Query is the expanded form of a user question.
type Query struct {
	RawText      string
	ExpandedText string
	Intents      map[Intent]bool
}

// HasIntent reports whether the query matched the given intent category.
func (q Query) HasIntent(intent Intent) bool {
	return q.Intents[intent]
}
