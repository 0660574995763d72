package analyses

// Red flag severities as emitted by the analysis prompts.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Result is the structured analysis produced for one document.
type Result struct {
	Summary    string      `json:"summary"`
	KeyDetails []KeyDetail `json:"keyDetails"`
	RedFlags   []RedFlag   `json:"redFlags"`
}

// KeyDetail is one labeled fact lifted from the document, with figures kept
// verbatim.
type KeyDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// RedFlag is one risky clause the model identified.
type RedFlag struct {
	Clause            string `json:"clause"`
	Concern           string `json:"concern"`
	Severity          string `json:"severity"`
	WhatToLookFor     string `json:"whatToLookFor,omitempty"`
	SuggestedQuestion string `json:"suggestedQuestion,omitempty"`
}
