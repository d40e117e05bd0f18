package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GoogleDefaultModel is the default model for the Google provider.
const GoogleDefaultModel = "gemini-2.0-flash"

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
}

// googleProvider implements CoreLLM for Google's Gemini API.
type googleProvider struct {
	BaseProvider
	client          *genai.Client
	errorClassifier *ErrorClassifier
}

// newGoogleProvider creates a Gemini provider authenticated with an API key.
func newGoogleProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}

	return &googleProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          client,
		errorClassifier: &ErrorClassifier{Provider: "google"},
	}, nil
}

// DoRequest sends a request to the Gemini API and returns the response text.
func (p *googleProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	contents := p.buildContents(prompt, options)
	config := p.buildGenerationConfig(options)

	resp, err := p.client.Models.GenerateContent(ctx, options.Model, contents, config)
	if err != nil {
		return "", p.handleError(err)
	}

	content := resp.Text()
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// buildContents prepends the system prompt to the user prompt; Gemini has
// no separate system role in this request shape.
func (p *googleProvider) buildContents(prompt string, options RequestOptions) []*genai.Content {
	finalPrompt := prompt
	if options.System != "" {
		finalPrompt = fmt.Sprintf("System: %s\n\nUser: %s", options.System, prompt)
	}
	return []*genai.Content{genai.NewContentFromText(finalPrompt, genai.RoleUser)}
}

func (p *googleProvider) buildGenerationConfig(options RequestOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if options.Temperature != nil {
		temp := clamp(*options.Temperature, 0.0, 2.0)
		config.Temperature = genai.Ptr(float32(temp))
	}
	if options.MaxTokens > 0 && options.MaxTokens <= math.MaxInt32 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.TopP != nil {
		topP := clamp(*options.TopP, 0.0, 1.0)
		config.TopP = genai.Ptr(float32(topP))
	}
	if options.TopK > 0 {
		topK := clampInt(options.TopK, 1, 40)
		config.TopK = genai.Ptr(float32(topK))
	}

	return config
}

// handleError classifies Gemini failures into standardized ProviderErrors.
func (p *googleProvider) handleError(err error) error {
	if isContextError(err) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	if apiErr, ok := err.(*googleapi.Error); ok {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}
		return p.errorClassifier.ClassifyHTTPError(apiErr.Code, message, err)
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return p.errorClassifier.ClassifyHTTPError(genaiErr.Code, genaiErr.Message, err)
	}

	return NewProviderError("google", ErrorTypeUnknown, 0, "request failed", err)
}
