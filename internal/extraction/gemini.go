package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// receiptPrompt is the fixed instruction sent with every document. The
// model is told the exact output schema; response parsing still assumes
// nothing beyond JSON-parseability.
const receiptPrompt = `You are a skilled accounting assistant. Read the provided receipt (an image, or a rasterized PDF) and extract the following fields. If a field cannot be determined, return an empty string for it.

Fields:
1. date (format: YYYY/MM/DD)
2. amount (the grand total, numeric value only, whole currency units)
3. payee (the store or business name)
4. description (a short summary of what was purchased)

Respond with exactly this JSON shape:
{
  "date": "2024/01/25",
  "amount": 1250,
  "payee": "Starbucks",
  "description": "coffee, sandwich"
}`

// GeminiClient talks to Google's Gemini API. It implements Extractor and
// Catalog. The API key is supplied per call rather than at construction so
// that a key changed in settings takes effect immediately.
type GeminiClient struct{}

// NewGeminiClient creates a new GeminiClient.
func NewGeminiClient() *GeminiClient {
	return &GeminiClient{}
}

// Extract sends the document and the extraction prompt to the given model,
// constrained to a JSON response, and parses the answer.
func (g *GeminiClient) Extract(ctx context.Context, apiKey string, doc *Document, modelID string) (*ReceiptFields, error) {
	if apiKey == "" {
		return nil, &ProviderError{Message: "api key is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &ProviderError{Message: err.Error(), Err: err}
	}
	defer client.Close()

	model := client.GenerativeModel(modelID)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.Text(receiptPrompt),
		genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data},
	)
	if err != nil {
		return nil, providerError(err)
	}

	text, ok := firstText(resp)
	if !ok {
		return nil, ErrEmptyResponse
	}

	return parseReceiptJSON(text)
}

// firstText returns the first text part of the first candidate.
func firstText(resp *genai.GenerateContentResponse) (string, bool) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok && strings.TrimSpace(string(text)) != "" {
			return string(text), true
		}
	}
	return "", false
}

// providerError maps a transport failure onto ProviderError, preferring the
// provider's structured error message when the response body carried one.
func providerError(err error) *ProviderError {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", gerr.Code)
		}
		return &ProviderError{Message: msg, Err: err}
	}
	return &ProviderError{Message: err.Error(), Err: err}
}
