package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Role identifies the author of a conversational turn
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry of the conversational context sent to the model
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Location preference for a side hustle
type Location string

const (
	LocationOnline Location = "Online"
	LocationLocal  Location = "Local"
	LocationHybrid Location = "Hybrid"
)

// TimeOptions are the weekly time commitments offered by the wish form
var TimeOptions = []string{"<5 hours", "5-10 hours", "10+ hours"}

// WishForm is the structured input collected before generating ideas
type WishForm struct {
	Skills   string   `json:"skills"`
	Time     string   `json:"time"`
	Location Location `json:"location"`
	Goal     string   `json:"goal"`
}

// NewWishForm returns a form with the defaults preselected
func NewWishForm() WishForm {
	return WishForm{Time: "5-10 hours", Location: LocationOnline}
}

var (
	ErrMissingSkills   = errors.New("skills are required")
	ErrMissingGoal     = errors.New("goal is required")
	ErrInvalidLocation = errors.New("location must be Online, Local or Hybrid")
)

// Validate rejects forms with blank required fields
func (f WishForm) Validate() error {
	if strings.TrimSpace(f.Skills) == "" {
		return ErrMissingSkills
	}
	if strings.TrimSpace(f.Goal) == "" {
		return ErrMissingGoal
	}
	switch f.Location {
	case LocationOnline, LocationLocal, LocationHybrid:
	default:
		return ErrInvalidLocation
	}
	return nil
}

// HustleIdea is one generated side hustle suggestion
type HustleIdea struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	TimeCommitment    string   `json:"timeCommitment"`
	EstimatedEarnings string   `json:"estimatedEarnings"`
	HustleSteps       []string `json:"hustleSteps"`
}

// PlanDay is one day of a launch plan
type PlanDay struct {
	Day   int      `json:"day"`
	Title string   `json:"title"`
	Tasks []string `json:"tasks"`
}

// LaunchPlan is a 7-day plan for starting a hustle
type LaunchPlan struct {
	Plan []PlanDay `json:"plan"`
}

var (
	// ErrMalformedResponse is wrapped by every generation failure caused by
	// output that does not match the declared schema
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrNoImage is returned when an image call succeeds without image data
	ErrNoImage = errors.New("no image data found in response")
)

// GenerationError reports a failed idea, plan or image generation
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// JSONRequest asks a provider for a response conforming to Schema
type JSONRequest struct {
	SystemInstruction string
	Prompt            string
	Schema            *Schema
}

// Provider interface defines the common interface for all LLM backends
type Provider interface {
	// Chat sends the conversation and returns the model's reply to the last turn
	Chat(ctx context.Context, systemInstruction string, turns []Turn) (string, error)

	// GenerateJSON returns raw JSON text shaped by req.Schema
	GenerateJSON(ctx context.Context, req JSONRequest) (string, error)

	// GenerateImage returns the MIME type and bytes of an image for prompt
	GenerateImage(ctx context.Context, prompt string) (mimeType string, data []byte, err error)

	// Name returns the provider name
	Name() string

	// ValidateConfig validates the provider configuration
	ValidateConfig() error
}

// Config represents provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	ImageModel  string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}
