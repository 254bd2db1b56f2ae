package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"hustle-genie/utils"
)

// Gateway shapes prompts for the HustleGenie features and validates what
// the provider returns
type Gateway struct {
	provider Provider
	logger   *utils.Logger
}

// NewGateway wraps provider
func NewGateway(provider Provider, logger *utils.Logger) *Gateway {
	return &Gateway{
		provider: provider,
		logger:   logger.With("component", "gateway", "provider", provider.Name()),
	}
}

// Provider returns the underlying provider
func (g *Gateway) Provider() Provider {
	return g.provider
}

// StartSession opens a chat seeded with history. An empty instruction
// selects DefaultPersonality.
func (g *Gateway) StartSession(history []Turn, instruction string) ChatSession {
	if instruction == "" {
		instruction = DefaultPersonality
	}
	return newSession(g.provider, g.logger, history, instruction)
}

// GenerateIdeas returns up to three ideas matching form
func (g *Gateway) GenerateIdeas(ctx context.Context, form WishForm) ([]HustleIdea, error) {
	const op = "generate hustle ideas"

	if err := form.Validate(); err != nil {
		return nil, &GenerationError{Op: op, Err: err}
	}

	raw, err := g.provider.GenerateJSON(ctx, JSONRequest{
		SystemInstruction: ideasInstruction,
		Prompt:            ideasPrompt(form),
		Schema:            HustleIdeasSchema,
	})
	if err != nil {
		g.logger.Error("idea generation failed", "error", err)
		return nil, &GenerationError{Op: op, Err: err}
	}

	ideas, err := parseIdeas(raw, ideasPerWish)
	if err != nil {
		g.logger.Error("idea response rejected", "error", err)
		return nil, &GenerationError{Op: op, Err: err}
	}
	return ideas, nil
}

// GenerateInspirationalIdea returns a single surprise idea
func (g *Gateway) GenerateInspirationalIdea(ctx context.Context) ([]HustleIdea, error) {
	const op = "generate inspirational idea"

	raw, err := g.provider.GenerateJSON(ctx, JSONRequest{
		SystemInstruction: inspirationInstruction,
		Prompt:            inspirationPrompt,
		Schema:            HustleIdeasSchema,
	})
	if err != nil {
		g.logger.Error("inspiration failed", "error", err)
		return nil, &GenerationError{Op: op, Err: err}
	}

	ideas, err := parseIdeas(raw, 1)
	if err != nil {
		g.logger.Error("inspiration response rejected", "error", err)
		return nil, &GenerationError{Op: op, Err: err}
	}
	return ideas, nil
}

// GenerateLaunchPlan returns a 7-day plan for idea
func (g *Gateway) GenerateLaunchPlan(ctx context.Context, idea HustleIdea) (*LaunchPlan, error) {
	const op = "generate launch plan"

	raw, err := g.provider.GenerateJSON(ctx, JSONRequest{
		SystemInstruction: planInstruction,
		Prompt:            planPrompt(idea),
		Schema:            LaunchPlanSchema,
	})
	if err != nil {
		g.logger.Error("launch plan failed", "idea", idea.Title, "error", err)
		return nil, &GenerationError{Op: op, Err: err}
	}

	plan, err := parsePlan(raw)
	if err != nil {
		g.logger.Error("launch plan response rejected", "idea", idea.Title, "error", err)
		return nil, &GenerationError{Op: op, Err: err}
	}
	return plan, nil
}

// GenerateImage returns the generated image as a data URI
func (g *Gateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	const op = "generate image"

	mimeType, data, err := g.provider.GenerateImage(ctx, prompt)
	if err != nil {
		g.logger.Error("image generation failed", "error", err)
		return "", &GenerationError{Op: op, Err: err}
	}
	if len(data) == 0 {
		return "", &GenerationError{Op: op, Err: ErrNoImage}
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}
