// Package modelid derives offline information from model identifiers.
package modelid

import (
	"regexp"
	"strings"
)

// Type is the coarse purpose of a model.
type Type string

const (
	TypeChat       Type = "Chat"
	TypeEmbedding  Type = "Embedding"
	TypeImage      Type = "Image"
	TypeAudio      Type = "Audio"
	TypeModeration Type = "Moderation"
	TypeUnknown    Type = "Unknown"
)

// Types lists every Type in display order.
var Types = []Type{TypeChat, TypeEmbedding, TypeImage, TypeAudio, TypeModeration, TypeUnknown}

const namespacePrefix = "models/"

var providerPrefixes = []struct {
	prefix   string
	provider string
}{
	{"gpt-", "openai"},
	{"text-", "openai"},
	{"dall-e", "openai"},
	{"whisper", "openai"},
	{"gemini", "gemini"},
	{namespacePrefix, "gemini"},
	{"deepseek", "deepseek"},
	{"claude", "anthropic"},
	{"anthropic", "anthropic"},
	{"grok", "grok"},
	{"xai", "grok"},
	{"llama", "groq"},
	{"mixtral", "groq"},
	{"gemma", "groq"},
	{"gsk_", "groq"},
}

// GuessProvider returns the provider id a model id most likely belongs to, or "".
func GuessProvider(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range providerPrefixes {
		if strings.HasPrefix(id, p.prefix) {
			return p.provider
		}
	}
	return ""
}

// Parts is a model id split into its conventional components.
type Parts struct {
	Namespace string `json:"namespace,omitempty"`
	Family    string `json:"family"`
	Version   string `json:"version,omitempty"`
	Suffix    string `json:"suffix,omitempty"`
}

var dateSuffix = regexp.MustCompile(`^\d{8}$`)

// Parse splits "models/gemini-1.5-pro" into namespace, family and version.
// A trailing YYYYMMDD, "latest" or "preview" segment becomes the suffix.
func Parse(id string) Parts {
	id = strings.TrimSpace(id)
	var parts Parts
	if strings.HasPrefix(id, namespacePrefix) {
		parts.Namespace = strings.TrimSuffix(namespacePrefix, "/")
		id = strings.TrimPrefix(id, namespacePrefix)
	}

	segments := strings.Split(id, "-")
	parts.Family = segments[0]
	rest := segments[1:]
	if n := len(rest); n > 0 && isSuffix(rest[n-1]) {
		parts.Suffix = rest[n-1]
		rest = rest[:n-1]
	}
	parts.Version = strings.Join(rest, "-")
	return parts
}

func isSuffix(segment string) bool {
	switch strings.ToLower(segment) {
	case "latest", "preview":
		return true
	}
	return dateSuffix.MatchString(segment)
}

// Classify guesses the model type from well-known substrings.
func Classify(id string) Type {
	lower := strings.ToLower(id)
	switch {
	case strings.Contains(lower, "embedding"):
		return TypeEmbedding
	case strings.Contains(lower, "dall-e"), strings.Contains(lower, "imagen"):
		return TypeImage
	case strings.Contains(lower, "whisper"), strings.Contains(lower, "tts"):
		return TypeAudio
	case strings.Contains(lower, "moderation"):
		return TypeModeration
	case GuessProvider(id) != "":
		return TypeChat
	default:
		return TypeUnknown
	}
}

// Insight collects everything known about a model id without network access.
type Insight struct {
	ID        string `json:"id"`
	Provider  string `json:"provider,omitempty"`
	Type      Type   `json:"type"`
	Parts     Parts  `json:"parts"`
	Reference *Card  `json:"reference,omitempty"`
}

// Inspect builds the Insight for id.
func Inspect(id string) Insight {
	id = strings.TrimSpace(id)
	insight := Insight{
		ID:        id,
		Provider:  GuessProvider(id),
		Type:      Classify(id),
		Parts:     Parse(id),
		Reference: Reference(id),
	}
	if insight.Provider == "" && insight.Reference != nil {
		insight.Provider = insight.Reference.Provider
	}
	return insight
}

// FieldDiff is one field that differs between two insights.
type FieldDiff struct {
	Field string `json:"field"`
	A     string `json:"a"`
	B     string `json:"b"`
}

// Comparison puts two insights side by side.
type Comparison struct {
	A           Insight     `json:"a"`
	B           Insight     `json:"b"`
	Differences []FieldDiff `json:"differences"`
}

// Compare inspects both ids and lists the fields that differ.
func Compare(a, b string) Comparison {
	c := Comparison{A: Inspect(a), B: Inspect(b), Differences: []FieldDiff{}}

	fa, fb := c.A.fields(), c.B.fields()
	for i := range fa {
		if fa[i].value != fb[i].value {
			c.Differences = append(c.Differences, FieldDiff{Field: fa[i].name, A: fa[i].value, B: fb[i].value})
		}
	}
	return c
}

type namedValue struct {
	name  string
	value string
}

func (i Insight) fields() []namedValue {
	fields := []namedValue{
		{"provider", i.Provider},
		{"type", string(i.Type)},
		{"family", i.Parts.Family},
		{"version", i.Parts.Version},
		{"suffix", i.Parts.Suffix},
		{"context_length", ""},
		{"capabilities", ""},
	}
	if i.Reference != nil {
		fields[5].value = formatInt(i.Reference.ContextLength)
		fields[6].value = strings.Join(i.Reference.Capabilities, ", ")
	}
	return fields
}

// QuickPicks are the ids offered as one-click examples.
func QuickPicks() []string {
	return []string{
		"gpt-4o",
		"claude-3-5-sonnet-20241022",
		"models/gemini-1.5-pro",
		"llama-3-70b",
		"grok-beta",
	}
}
