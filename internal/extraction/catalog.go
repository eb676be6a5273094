package extraction

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// generateContentMethod is the capability a model must declare to be usable
// for extraction.
const generateContentMethod = "generateContent"

// ListModels queries the provider's model catalog and returns the models
// capable of content generation, for presentation in configuration.
func (g *GeminiClient) ListModels(ctx context.Context, apiKey string) ([]ModelDescriptor, error) {
	if apiKey == "" {
		return nil, &ProviderError{Message: "api key is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &ProviderError{Message: err.Error(), Err: err}
	}
	defer client.Close()

	var models []ModelDescriptor
	it := client.ListModels(ctx)
	for {
		info, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, providerError(err)
		}
		if !supportsGeneration(info) {
			continue
		}
		models = append(models, describeModel(info))
	}
	return models, nil
}

func supportsGeneration(info *genai.ModelInfo) bool {
	for _, method := range info.SupportedGenerationMethods {
		if method == generateContentMethod {
			return true
		}
	}
	return false
}

// describeModel maps a provider resource to a descriptor. The id is the
// last path segment of the resource name ("models/gemini-1.5-flash" ->
// "gemini-1.5-flash").
func describeModel(info *genai.ModelInfo) ModelDescriptor {
	id := info.Name
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	return ModelDescriptor{
		ID:          id,
		DisplayName: info.DisplayName,
		Description: info.Description,
	}
}
