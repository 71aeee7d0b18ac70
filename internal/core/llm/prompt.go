package llm

import (
	"fmt"
	"strings"

	"github.com/markdave123-py/counsel/internal/core"
)

const systemPrompt = "You are a legal AI assistant. Give clear, general legal information and remind the user it is not legal advice."

// buildPrompt renders the single text prompt sent to text-generation endpoints.
func buildPrompt(p core.Prompt) string {
	var b strings.Builder
	b.WriteString("You are a legal AI assistant. Answer this question:\n\n")
	if ctx := strings.TrimSpace(p.DocumentContext); ctx != "" {
		fmt.Fprintf(&b, "Document context:\n%s\n\n", ctx)
	}
	fmt.Fprintf(&b, "Question: %s\n\nAnswer:", strings.TrimSpace(p.Question))
	return b.String()
}
