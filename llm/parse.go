package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	ideasPerWish = 3
	planDays     = 7
)

// parseIdeas decodes {"ideas": [...]} and keeps at most limit entries
func parseIdeas(raw string, limit int) ([]HustleIdea, error) {
	var payload struct {
		Ideas []HustleIdea `json:"ideas"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(payload.Ideas) == 0 {
		return nil, fmt.Errorf("%w: no ideas", ErrMalformedResponse)
	}
	for i, idea := range payload.Ideas {
		if strings.TrimSpace(idea.Title) == "" {
			return nil, fmt.Errorf("%w: idea %d has no title", ErrMalformedResponse, i)
		}
	}
	if len(payload.Ideas) > limit {
		payload.Ideas = payload.Ideas[:limit]
	}
	return payload.Ideas, nil
}

// parsePlan decodes {"plan": [...]} and orders the days
func parsePlan(raw string) (*LaunchPlan, error) {
	var plan LaunchPlan
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(plan.Plan) == 0 {
		return nil, fmt.Errorf("%w: empty plan", ErrMalformedResponse)
	}
	for _, day := range plan.Plan {
		if day.Day < 1 || day.Day > planDays {
			return nil, fmt.Errorf("%w: day %d out of range", ErrMalformedResponse, day.Day)
		}
	}
	sort.SliceStable(plan.Plan, func(i, j int) bool {
		return plan.Plan[i].Day < plan.Plan[j].Day
	})
	return &plan, nil
}

// cleanJSON strips whitespace and markdown code fences some models add
// even in JSON mode
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
