package llm

import (
	_ "embed"
	"fmt"
	"strings"
)

var (
	//go:embed prompts/rental.txt
	promptRental string
	//go:embed prompts/loan.txt
	promptLoan string
	//go:embed prompts/tos.txt
	promptTOS string
	//go:embed prompts/chat.txt
	promptChat string
)

const defaultLanguage = "English"

// AnalysisPromptTemplate returns the analysis prompt template for a document
// type and whether the type was recognized.
func AnalysisPromptTemplate(docType string) (string, bool) {
	switch docType {
	case "rental":
		return promptRental, true
	case "loan":
		return promptLoan, true
	case "tos":
		return promptTOS, true
	default:
		return "", false
	}
}

// BuildAnalysisPrompt renders the docType-specific analysis prompt with the
// document text and target language substituted in.
func BuildAnalysisPrompt(docType, language, documentText string) (string, error) {
	tmpl, ok := AnalysisPromptTemplate(docType)
	if !ok {
		return "", fmt.Errorf("unknown document type: %s", docType)
	}
	return renderPrompt(tmpl, language, documentText, ""), nil
}

// BuildChatPrompt renders the document Q&A prompt.
func BuildChatPrompt(documentText, question, language string) string {
	return renderPrompt(promptChat, language, documentText, question)
}

func renderPrompt(tmpl, language, documentText, question string) string {
	if strings.TrimSpace(language) == "" {
		language = defaultLanguage
	}
	replacer := strings.NewReplacer(
		"{{LANGUAGE}}", language,
		"{{DOCUMENT_TEXT}}", documentText,
		"{{QUESTION}}", question,
	)
	return replacer.Replace(tmpl)
}
