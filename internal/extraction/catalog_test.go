package extraction

import (
	"github.com/google/generative-ai-go/genai"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("supportsGeneration", func() {
	It("accepts a model declaring generateContent", func() {
		info := &genai.ModelInfo{
			Name:                       "models/gemini-1.5-flash",
			SupportedGenerationMethods: []string{"generateContent", "countTokens"},
		}
		Expect(supportsGeneration(info)).To(BeTrue())
	})

	It("rejects a model without generateContent", func() {
		info := &genai.ModelInfo{
			Name:                       "models/text-embedding-004",
			SupportedGenerationMethods: []string{"embedContent"},
		}
		Expect(supportsGeneration(info)).To(BeFalse())
	})

	It("rejects a model with no declared capabilities", func() {
		Expect(supportsGeneration(&genai.ModelInfo{Name: "models/aqa"})).To(BeFalse())
	})
})

var _ = Describe("describeModel", func() {
	It("uses the last path segment of the resource name as the id", func() {
		info := &genai.ModelInfo{
			Name:        "models/gemini-1.5-flash",
			DisplayName: "Gemini 1.5 Flash",
			Description: "Fast multimodal model",
		}
		Expect(describeModel(info)).To(Equal(ModelDescriptor{
			ID:          "gemini-1.5-flash",
			DisplayName: "Gemini 1.5 Flash",
			Description: "Fast multimodal model",
		}))
	})

	It("keeps a name without a path separator as-is", func() {
		Expect(describeModel(&genai.ModelInfo{Name: "gemini-pro"}).ID).To(Equal("gemini-pro"))
	})
})

var _ = Describe("firstText", func() {
	It("returns the first text part of the first candidate", func() {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"date":""}`)}},
			}},
		}
		text, ok := firstText(resp)
		Expect(ok).To(BeTrue())
		Expect(text).To(Equal(`{"date":""}`))
	})

	It("reports no text when there are no candidates", func() {
		_, ok := firstText(&genai.GenerateContentResponse{})
		Expect(ok).To(BeFalse())
	})

	It("reports no text when the parts are blank", func() {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}},
			}},
		}
		_, ok := firstText(resp)
		Expect(ok).To(BeFalse())
	})
})
