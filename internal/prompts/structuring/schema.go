package structuring

// bulletSchema is shared by the bullets and right_bullets arrays.
var bulletSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"text": map[string]any{
			"type":      "string",
			"minLength": 1,
			"maxLength": 200,
		},
		"level": map[string]any{
			"type":    "integer",
			"minimum": 0,
			"maximum": 2,
		},
	},
	"required":             []string{"text", "level"},
	"additionalProperties": false,
}

// PlanSchema is the JSON schema for the structured presentation plan.
var PlanSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "presentation_plan",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"presentation_title": map[string]any{
					"type":      "string",
					"minLength": 1,
					"maxLength": 100,
				},
				"slides": map[string]any{
					"type":     "array",
					"minItems": 1,
					"maxItems": 20,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"layout_type_id": map[string]any{
								"type":    "integer",
								"minimum": 1,
								"maximum": 7,
							},
							"title": map[string]any{
								"type":      "string",
								"minLength": 1,
								"maxLength": 100,
							},
							"body_text": map[string]any{
								"type":      []string{"string", "null"},
								"maxLength": 800,
							},
							"bullets": map[string]any{
								"type":     "array",
								"maxItems": 10,
								"items":    bulletSchema,
							},
							"right_bullets": map[string]any{
								"type":     "array",
								"maxItems": 10,
								"items":    bulletSchema,
							},
							"speaker_notes": map[string]any{
								"type":      []string{"string", "null"},
								"maxLength": 500,
							},
						},
						"required":             []string{"layout_type_id", "title"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []string{"presentation_title", "slides"},
			"additionalProperties": false,
		},
	},
}
