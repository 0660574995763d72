package analyses

import (
	"encoding/json"
	"strings"
	"testing"

	"lexiguide-backend/internal/llm"
)

func TestResultRoundTripsModelReply(t *testing.T) {
	reply := `{
		"summary": "A one-year rental agreement.",
		"keyDetails": [{"label": "Security Deposit", "value": "Rs. 1,00,000"}],
		"redFlags": [{
			"clause": "Clause 9",
			"concern": "Deposit forfeited on early exit",
			"severity": "medium",
			"whatToLookFor": "Forfeiture conditions",
			"suggestedQuestion": "Under what conditions is the deposit returned?"
		}]
	}`

	var result Result
	if err := json.Unmarshal([]byte(reply), &result); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if result.KeyDetails[0].Value != "Rs. 1,00,000" {
		t.Fatalf("expected deposit figure verbatim, got %q", result.KeyDetails[0].Value)
	}
	flag := result.RedFlags[0]
	if flag.Severity != SeverityMedium {
		t.Fatalf("expected %s severity, got %q", SeverityMedium, flag.Severity)
	}
	if flag.WhatToLookFor == "" || flag.SuggestedQuestion == "" {
		t.Fatalf("expected guidance fields populated, got %+v", flag)
	}
}

func TestPromptTemplatesUseKnownSeverities(t *testing.T) {
	for _, docType := range []string{DocTypeRental, DocTypeLoan, DocTypeTOS} {
		tmpl, ok := llm.AnalysisPromptTemplate(docType)
		if !ok {
			t.Fatalf("missing template for %s", docType)
		}
		for _, severity := range []string{SeverityHigh, SeverityMedium, SeverityLow} {
			if !strings.Contains(tmpl, severity) {
				t.Fatalf("template %s does not mention %q severity", docType, severity)
			}
		}
	}
}
