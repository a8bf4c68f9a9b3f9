package roadmap

// planSchema is the response schema handed to the model gateway for
// roadmap generation. It mirrors the wire shape decodePlan expects.
func planSchema() map[string]any {
	resource := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":  map[string]any{"type": "string"},
			"title": map[string]any{"type": "string"},
			"url":   map[string]any{"type": "string"},
		},
		"required": []string{"type", "title"},
	}

	keyTopic := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":          map[string]any{"type": "string"},
			"priority":       map[string]any{"type": "string", "enum": []string{"High", "Medium", "Low"}},
			"difficulty":     map[string]any{"type": "string", "enum": []string{"Easy", "Medium", "Hard"}},
			"description":    map[string]any{"type": "string"},
			"estimated_time": map[string]any{"type": "string"},
			"resources":      map[string]any{"type": "array", "items": resource},
		},
		"required": []string{"topic", "priority", "difficulty", "description", "estimated_time"},
	}

	activity := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":          map[string]any{"type": "string"},
			"description":    map[string]any{"type": "string"},
			"estimated_time": map[string]any{"type": "string"},
		},
		"required": []string{"title", "description", "estimated_time"},
	}

	weeklyPlan := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"week":       map[string]any{"type": "integer"},
			"dates":      map[string]any{"type": "string"},
			"goals":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"milestones": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"activities": map[string]any{"type": "array", "items": activity},
		},
		"required": []string{"week", "dates", "goals", "milestones", "activities"},
	}

	plannedTask := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":          map[string]any{"type": "string"},
			"description":    map[string]any{"type": "string"},
			"estimated_time": map[string]any{"type": "string"},
		},
		"required": []string{"title", "description", "estimated_time"},
	}

	dailyPlan := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date":  map[string]any{"type": "string"},
			"tasks": map[string]any{"type": "array", "items": plannedTask},
		},
		"required": []string{"date", "tasks"},
	}

	strategies := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"spaced_repetition": map[string]any{"type": "boolean"},
			"active_recall":     map[string]any{"type": "boolean"},
			"pomodoro":          map[string]any{"type": "boolean"},
			"notes":             map[string]any{"type": "boolean"},
			"group_study":       map[string]any{"type": "boolean"},
		},
		"required": []string{"spaced_repetition", "active_recall", "pomodoro", "notes", "group_study"},
	}

	progress := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"completed_topics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"pending_topics":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"completed_topics", "pending_topics"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject": map[string]any{"type": "string"},
			"roadmap": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"overview":            map[string]any{"type": "string"},
					"key_topics":          map[string]any{"type": "array", "items": keyTopic},
					"weekly_study_plans":  map[string]any{"type": "array", "items": weeklyPlan},
					"daily_study_plan":    map[string]any{"type": "array", "items": dailyPlan},
					"learning_strategies": strategies,
					"progress_tracking":   progress,
				},
				"required": []string{
					"overview", "key_topics", "weekly_study_plans",
					"daily_study_plan", "learning_strategies", "progress_tracking",
				},
			},
		},
		"required": []string{"subject", "roadmap"},
	}
}
