package rag

import (
	"fmt"
	"strings"

	wl "github.com/abadojack/whatlanggo"
)

// JoinContexts builds the context block shared by every model.
func JoinContexts(contexts []string) string {
	if len(contexts) == 0 {
		return NoContextPlaceholder
	}
	return strings.Join(contexts, "\n\n")
}

// BuildPrompt renders the single prompt every model receives.
func BuildPrompt(question, contextText string) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant. Use the following context to answer the question.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer based on the context provided. If the context doesn't contain enough information, say so.")

	if lang := detectLanguage(question); lang != "" {
		fmt.Fprintf(&b, " Respond in %s.", lang)
	}
	return b.String()
}

// detectLanguage returns the English name of the question's language when
// detection is reliable and the language is not English.
func detectLanguage(s string) string {
	info := wl.Detect(s)
	if !info.IsReliable() || info.Lang == wl.Eng {
		return ""
	}
	return info.Lang.String()
}
