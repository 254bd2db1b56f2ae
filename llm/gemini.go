package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}
	if config.ImageModel == "" {
		config.ImageModel = "gemini-2.5-flash-image"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: config.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{client: client, config: config}, nil
}

// Chat implements non-streaming chat over the full conversation
func (p *GeminiProvider) Chat(ctx context.Context, systemInstruction string, turns []Turn) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, toGenAIContents(turns), p.baseConfig(systemInstruction))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("no content in response")
	}
	return text, nil
}

// GenerateJSON asks Gemini for schema-constrained JSON output
func (p *GeminiProvider) GenerateJSON(ctx context.Context, req JSONRequest) (string, error) {
	config := p.baseConfig(req.SystemInstruction)
	config.ResponseMIMEType = "application/json"
	config.ResponseSchema = toGenAISchema(req.Schema)

	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return resp.Text(), nil
}

// GenerateImage returns the first inline image of an IMAGE-modality response
func (p *GeminiProvider) GenerateImage(ctx context.Context, prompt string) (string, []byte, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.ImageModel, genai.Text(prompt), config)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate image: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.MIMEType, part.InlineData.Data, nil
			}
		}
	}
	return "", nil, ErrNoImage
}

func (p *GeminiProvider) baseConfig(systemInstruction string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	if p.config.Temperature > 0 {
		temperature := float32(p.config.Temperature)
		config.Temperature = &temperature
	}
	return config
}

// toGenAISchema converts the neutral schema into Gemini's representation
func toGenAIContents(turns []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.RoleUser
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(role)))
	}
	return contents
}

func toGenAISchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Items:       toGenAISchema(s.Items),
	}

	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeNumber:
		out.Type = genai.TypeNumber
	default:
		out.Type = genai.TypeString
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenAISchema(prop)
		}
	}

	return out
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// ValidateConfig validates the configuration
func (p *GeminiProvider) ValidateConfig() error {
	if p.config.APIKey == "" {
		return errors.New("API key is required")
	}
	return nil
}
