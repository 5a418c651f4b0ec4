package entity

// Extraction is the outcome of crawling one URL against the selector rules
// configured for its domain.
type Extraction struct {
	URL    string
	Domain string
	// Lines holds the trimmed text lines of every matching rule, in rule
	// order and then document order.
	Lines        []string
	RulesMatched int
	RulesFailed  int
}

// Failed reports whether rules matched but none of them could be fetched.
func (e *Extraction) Failed() bool {
	return e.RulesMatched > 0 && e.RulesFailed == e.RulesMatched
}
