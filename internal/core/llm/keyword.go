package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/markdave123-py/counsel/internal/core"
)

// KeywordGateway answers from the static legal knowledge table. It never fails.
type KeywordGateway struct {
	entries []knowledgeEntry
}

var _ core.InferenceGateway = (*KeywordGateway)(nil)

func NewKeywordGateway() *KeywordGateway {
	return &KeywordGateway{entries: legalKnowledge}
}

func (g *KeywordGateway) Complete(_ context.Context, _ string, p core.Prompt) (string, error) {
	answer := g.answer(p.Question)
	if ctx := strings.TrimSpace(p.DocumentContext); ctx != "" {
		answer = fmt.Sprintf(
			"Based on your document:\n%s\n\n%s\n\nReview the document's own terms carefully, as they may change how this applies.",
			ctx, answer)
	}
	return answer, nil
}

func (g *KeywordGateway) answer(question string) string {
	text := normalize(question)
	for _, e := range g.entries {
		for _, kw := range e.keywords {
			if containsPhrase(text, kw) {
				return e.answer
			}
		}
	}
	for _, w := range helpWords {
		if containsPhrase(text, w) {
			return helpAnswer
		}
	}
	for _, w := range greetingWords {
		if containsPhrase(text, w) {
			return greetingAnswer
		}
	}
	return genericAnswer
}

// normalize lowercases and turns punctuation into spaces, keeping hyphens.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return " " + strings.Join(strings.Fields(mapped), " ") + " "
}

// containsPhrase matches whole words so "hi" does not hit "this".
func containsPhrase(normalized, phrase string) bool {
	return strings.Contains(normalized, " "+phrase+" ")
}
