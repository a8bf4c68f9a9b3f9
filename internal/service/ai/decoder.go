package ai

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Decode parses raw model output into an Envelope. It never fails:
// models reliably produce near-valid JSON but not guaranteed-valid
// JSON, so parsing runs a two-tier parse-then-repair ladder and, if
// both tiers lose, the raw text becomes the message itself with no
// tool access requested.
func Decode(raw string) Envelope {
	text := stripFences(strings.TrimSpace(raw))

	if env, ok := tryParse(text); ok {
		return env
	}

	if repaired, err := jsonrepair.JSONRepair(text); err == nil {
		if env, ok := tryParse(repaired); ok {
			return env
		}
	}

	return Envelope{
		Message:      raw,
		RequireTools: RequireTools{IsAccessToToolsRequired: false},
	}
}

func tryParse(text string) (Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return Envelope{}, false
	}
	// An envelope without a message is useless to the caller; treat it
	// as a decode failure so the fallback path kicks in.
	if env.Message == "" {
		return Envelope{}, false
	}
	return env, true
}

// stripFences extracts the contents of the first markdown code fence,
// wherever it sits. Some models ignore the no-fences instruction and
// wrap their JSON in ```json ... ```, sometimes after a line of prose.
func stripFences(text string) string {
	idx := strings.Index(text, "```")
	if idx < 0 {
		return text
	}

	inner := text[idx+3:]
	inner = strings.TrimPrefix(inner, "json")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 && strings.TrimSpace(inner[:nl]) == "" {
		inner = inner[nl+1:]
	}
	if end := strings.Index(inner, "```"); end >= 0 {
		inner = inner[:end]
	}
	return strings.TrimSpace(inner)
}
