// Package echo is an offline provider for development and tests. Its model is
// registered as unchargeable, so every call it makes prices to NoCost.
package echo

import (
	"fmt"
	"strings"

	"github.com/davidbz/creditmeter/internal/domain"
)

const (
	// ProviderID is the echo provider's directory id.
	ProviderID = "echo"
	modelName  = "echo4"
)

// Ref is the directory reference of the echo model.
//
//nolint:gochecknoglobals // fixed model reference
var Ref = domain.ModelRef{ProviderID: ProviderID, ModelID: modelName, Modality: domain.ModalityLanguage}

// Models returns the echo catalog entry.
func Models() []domain.ModelInfo {
	return []domain.ModelInfo{{
		ModelRef:    Ref,
		DisplayName: "Echo (testing)",
		Chargeable:  false,
	}}
}

// Usage returns the usage an echo call would report for the prompt: the
// prompt is echoed back, so output matches input word for word.
func Usage(prompt []domain.PromptMessage) domain.LanguageGenerationDetails {
	tokens := countTokens(buildEchoContent(prompt))
	return domain.LanguageGenerationDetails{
		InputTokens:  tokens,
		OutputTokens: tokens,
	}
}

func buildEchoContent(messages []domain.PromptMessage) string {
	if len(messages) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, msg := range messages {
		builder.WriteString(fmt.Sprintf("[%s]: %s\n", msg.Role, msg.Content))
	}
	return builder.String()
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int64 {
	return int64(len(strings.Fields(content)))
}
