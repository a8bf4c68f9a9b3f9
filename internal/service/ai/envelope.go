package ai

// RequireTools is the model's self-reported need for auxiliary data
// before it can answer fully. Sub-flags default to false when absent.
type RequireTools struct {
	IsAccessToToolsRequired bool `json:"isAccessToToolsRequired"`
	GetUsersTasks           bool `json:"getUsersTasks,omitempty"`
	GetUsersRoadmap         bool `json:"getUsersRoadmap,omitempty"`
}

// Envelope is the structured object every model turn must produce.
type Envelope struct {
	Message      string       `json:"message"`
	RequireTools RequireTools `json:"requireTools"`
}

// EnvelopeSchema returns the JSON-schema definition the gateway binds
// model output to. Providers with native structured output enforce it;
// the others embed it in the prompt and lean on the decoder.
func EnvelopeSchema() map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "AI tutor response envelope",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Your normal conversational message to the user in markdown format.",
			},
			"requireTools": map[string]any{
				"type":        "object",
				"description": "Specifies if tools are needed to fetch user data.",
				"properties": map[string]any{
					"isAccessToToolsRequired": map[string]any{
						"type":        "boolean",
						"description": "True if access to tools is required.",
					},
					"getUsersTasks": map[string]any{
						"type":        "boolean",
						"description": "True if the user's tasks are needed.",
					},
					"getUsersRoadmap": map[string]any{
						"type":        "boolean",
						"description": "True if the user's roadmap is needed.",
					},
				},
				"required": []any{"isAccessToToolsRequired"},
			},
		},
		"required": []any{"message", "requireTools"},
	}
}
