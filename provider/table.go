package provider

import "strings"

type adapterKind int

const (
	kindOpenAICompatible adapterKind = iota
	kindAnthropic
	kindGemini
)

// marker flags a model id substring, compared case-insensitively
type marker struct {
	Key    string
	Substr string
}

type spec struct {
	ID         string
	Name       string
	Badge      string
	KeyPrefix  string
	BaseURL    string
	AuthHeader string
	ProbeModel string
	kind       adapterKind
	aliases    []string

	// paid decides the account type shown in the validation message
	paid []marker
	// features are reported individually by AccountStatus
	features []marker
	// categories group the model list in Summarize
	categories []marker
}

// specs is ordered by detection priority for keys without a known prefix
var specs = []spec{
	{
		ID:         "openai",
		Name:       "OpenAI",
		Badge:      "🟦 OpenAI",
		KeyPrefix:  "sk-",
		BaseURL:    "https://api.openai.com/v1",
		AuthHeader: "Authorization",
		ProbeModel: "gpt-4o-mini",
		kind:       kindOpenAICompatible,
		paid:       []marker{{"gpt4", "gpt-4"}},
		features: []marker{
			{"has_gpt4", "gpt-4"},
			{"has_gpt4_turbo", "gpt-4-turbo"},
			{"has_gpt4o", "gpt-4o"},
		},
		categories: []marker{{"gpt", "gpt"}, {"embedding", "embedding"}},
	},
	{
		ID:         "gemini",
		Name:       "Gemini",
		Badge:      "🟨 Gemini",
		KeyPrefix:  "AIza",
		BaseURL:    "https://generativelanguage.googleapis.com",
		AuthHeader: "x-goog-api-key",
		ProbeModel: "gemini-1.5-flash",
		kind:       kindGemini,
		aliases:    []string{"google"},
		paid:       []marker{{"pro", "gemini-pro"}, {"ultra", "gemini-ultra"}},
		features: []marker{
			{"has_gemini_pro", "gemini-pro"},
			{"has_gemini_ultra", "gemini-ultra"},
			{"has_gemini_flash", "gemini-flash"},
		},
		categories: []marker{{"gemini", "gemini"}, {"text", "text"}},
	},
	{
		ID:         "deepseek",
		Name:       "Deepseek",
		Badge:      "🟧 Deepseek",
		KeyPrefix:  "sk-",
		BaseURL:    "https://api.deepseek.com/v1",
		AuthHeader: "Authorization",
		ProbeModel: "deepseek-chat",
		kind:       kindOpenAICompatible,
		paid:       []marker{{"reasoner", "deepseek-reasoner"}},
		features: []marker{
			{"has_deepseek_chat", "deepseek-chat"},
			{"has_deepseek_reasoner", "deepseek-reasoner"},
		},
		categories: []marker{{"deepseek", "deepseek"}},
	},
	{
		ID:         "anthropic",
		Name:       "Anthropic Claude",
		Badge:      "🟪 Anthropic Claude",
		KeyPrefix:  "sk-ant-",
		BaseURL:    "https://api.anthropic.com/v1",
		AuthHeader: "x-api-key",
		ProbeModel: "claude-3-haiku-20240307",
		kind:       kindAnthropic,
		aliases:    []string{"claude"},
		paid:       []marker{{"claude_3", "claude-3"}, {"claude_2", "claude-2"}},
		features: []marker{
			{"has_claude_3_opus", "claude-3-opus"},
			{"has_claude_3_sonnet", "claude-3-sonnet"},
			{"has_claude_3_haiku", "claude-3-haiku"},
			{"has_claude_2", "claude-2"},
		},
		categories: []marker{{"claude_3", "claude-3"}, {"claude_2", "claude-2"}},
	},
	{
		ID:         "grok",
		Name:       "xAI Grok",
		Badge:      "⚫ xAI Grok",
		KeyPrefix:  "xai-",
		BaseURL:    "https://api.x.ai/v1",
		AuthHeader: "Authorization",
		ProbeModel: "grok-beta",
		kind:       kindOpenAICompatible,
		aliases:    []string{"xai"},
		paid:       []marker{{"grok", "grok"}},
		features: []marker{
			{"has_grok", "grok"},
			{"has_grok_beta", "grok-beta"},
			{"has_grok_pro", "grok-pro"},
		},
		categories: []marker{{"grok", "grok"}},
	},
	{
		ID:         "groq",
		Name:       "Groq",
		Badge:      "🟩 Groq",
		KeyPrefix:  "gsk_",
		BaseURL:    "https://api.groq.com/openai/v1",
		AuthHeader: "Authorization",
		ProbeModel: "llama-3.1-8b-instant",
		kind:       kindOpenAICompatible,
		paid:       []marker{{"llama", "llama"}, {"mixtral", "mixtral"}, {"gemma", "gemma"}},
		features: []marker{
			{"has_llama_3_8b", "llama-3-8b"},
			{"has_llama_3_70b", "llama-3-70b"},
			{"has_mixtral_8x7b", "mixtral-8x7b"},
			{"has_gemma_7b", "gemma-7b"},
			{"has_gemma_2b", "gemma-2b"},
		},
		categories: []marker{{"llama", "llama"}, {"mixtral", "mixtral"}, {"gemma", "gemma"}},
	},
}

// Info is the public, secret-free view of a table row.
type Info struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Badge      string   `json:"badge"`
	KeyPrefix  string   `json:"key_prefix"`
	BaseURL    string   `json:"base_url"`
	AuthHeader string   `json:"auth_header"`
	ProbeModel string   `json:"probe_model"`
	Aliases    []string `json:"aliases,omitempty"`
}

// All returns every provider id in canonical order.
func All() []string {
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.ID
	}
	return ids
}

// Describe returns the table rows, with base URLs resolved against config.
func Describe(config Config) []Info {
	infos := make([]Info, 0, len(specs))
	for _, s := range specs {
		infos = append(infos, Info{
			ID:         s.ID,
			Name:       s.Name,
			Badge:      s.Badge,
			KeyPrefix:  s.KeyPrefix,
			BaseURL:    config.baseURL(s),
			AuthHeader: s.AuthHeader,
			ProbeModel: s.ProbeModel,
			Aliases:    s.aliases,
		})
	}
	return infos
}

// Lookup resolves an id or alias to its canonical id.
func Lookup(id string) (string, bool) {
	s, ok := lookupSpec(id)
	return s.ID, ok
}

// Badge returns the display badge for an id, or the unknown badge.
func Badge(id string) string {
	if s, ok := lookupSpec(id); ok {
		return s.Badge
	}
	return "ℹ️ Unknown Provider"
}

// DisplayName returns the human name for an id, or the id itself.
func DisplayName(id string) string {
	if s, ok := lookupSpec(id); ok {
		return s.Name
	}
	return id
}

func lookupSpec(id string) (spec, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, s := range specs {
		if s.ID == id {
			return s, true
		}
		for _, alias := range s.aliases {
			if alias == id {
				return s, true
			}
		}
	}
	return spec{}, false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
