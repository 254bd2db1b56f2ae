package llm

// SchemaType names a JSON schema type
type SchemaType string

const (
	TypeObject SchemaType = "object"
	TypeArray  SchemaType = "array"
	TypeString SchemaType = "string"
	TypeNumber SchemaType = "number"
)

// Schema is a provider-neutral description of the JSON shape a model must
// return. Providers translate it into their native representation.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// HustleIdeasSchema describes {"ideas": [HustleIdea...]}
var HustleIdeasSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"ideas": {
			Type:        TypeArray,
			Description: "An array of 3 side hustle ideas.",
			Items: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"title": {
						Type:        TypeString,
						Description: "A creative and catchy name for the side hustle. e.g. 'Freelance Copy Genie'",
					},
					"description": {
						Type:        TypeString,
						Description: "A brief, magical-sounding description of the hustle.",
					},
					"timeCommitment": {
						Type:        TypeString,
						Description: "Estimated time commitment per week (e.g., '5–10 hrs/week').",
					},
					"estimatedEarnings": {
						Type:        TypeString,
						Description: "A potential monthly earning range (e.g., '$150–$500/mo').",
					},
					"hustleSteps": {
						Type:        TypeArray,
						Description: "A list of 3 simple, actionable first steps to start the hustle. e.g. ['1. Find clients', '2. Set pricing', '3. Build portfolio']",
						Items:       &Schema{Type: TypeString},
					},
				},
				Required: []string{"title", "description", "timeCommitment", "estimatedEarnings", "hustleSteps"},
			},
		},
	},
	Required: []string{"ideas"},
}

// LaunchPlanSchema describes {"plan": [PlanDay...]}
var LaunchPlanSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"plan": {
			Type:        TypeArray,
			Description: "A 7-day step-by-step launch plan.",
			Items: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"day": {Type: TypeNumber, Description: "The day number (1-7)."},
					"title": {
						Type:        TypeString,
						Description: "A creative title for the day's activities, e.g., 'Day 1: The Grand Opening'.",
					},
					"tasks": {
						Type:        TypeArray,
						Description: "A list of 2-4 specific, actionable tasks for that day.",
						Items:       &Schema{Type: TypeString},
					},
				},
				Required: []string{"day", "title", "tasks"},
			},
		},
	},
	Required: []string{"plan"},
}
