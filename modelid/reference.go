package modelid

import (
	"strconv"
	"strings"
)

// Card is the static reference entry for a well-known model.
type Card struct {
	ID            string   `json:"id"`
	Provider      string   `json:"provider"`
	Created       string   `json:"created"`
	ContextLength int      `json:"context_length"`
	Description   string   `json:"description"`
	Capabilities  []string `json:"capabilities"`
}

var cards = []Card{
	{"gpt-4o", "openai", "2024-05-13", 128000, "GPT-4o is OpenAI's most advanced model, optimized for speed and cost.", []string{"text-generation", "vision", "function-calling"}},
	{"gpt-4o-mini", "openai", "2024-05-13", 128000, "GPT-4o Mini is a smaller, faster version of GPT-4o.", []string{"text-generation", "function-calling"}},
	{"text-embedding-3-large", "openai", "2024-01-25", 8192, "High-quality text embeddings for semantic search and analysis.", []string{"embeddings"}},
	{"claude-3-5-sonnet-20241022", "anthropic", "2024-10-22", 200000, "Claude 3.5 Sonnet is Anthropic's most capable model.", []string{"text-generation", "vision", "function-calling"}},
	{"claude-3-haiku-20240307", "anthropic", "2024-03-07", 200000, "Claude 3 Haiku is fast and cost-effective.", []string{"text-generation", "vision"}},
	{"models/gemini-1.5-pro", "gemini", "2024-02-15", 1000000, "Gemini 1.5 Pro with 1M token context window.", []string{"text-generation", "vision", "function-calling"}},
	{"models/gemini-1.5-flash", "gemini", "2024-02-15", 1000000, "Gemini 1.5 Flash optimized for speed and efficiency.", []string{"text-generation", "vision"}},
	{"deepseek-chat", "deepseek", "2024-12-26", 64000, "Deepseek general chat model.", []string{"text-generation", "function-calling"}},
	{"grok-beta", "grok", "2024-11-04", 131072, "xAI Grok beta model.", []string{"text-generation", "function-calling"}},
	{"llama-3-70b", "groq", "2024-04-18", 8192, "Meta Llama 3 70B served by Groq.", []string{"text-generation"}},
}

// Reference returns the card for id, or nil. Gemini ids match with or without "models/".
func Reference(id string) *Card {
	id = strings.TrimSpace(id)
	for i := range cards {
		if cards[i].ID == id || strings.TrimPrefix(cards[i].ID, namespacePrefix) == id {
			c := cards[i]
			return &c
		}
	}
	return nil
}

// Cards returns the reference cards of one provider, in catalogue order.
func Cards(provider string) []Card {
	var out []Card
	for _, c := range cards {
		if c.Provider == provider {
			out = append(out, c)
		}
	}
	return out
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
