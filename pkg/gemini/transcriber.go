package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Transcriber converts recorded audio to text with the model.
type Transcriber struct {
	gen      Generator
	model    string
	language string
}

// NewTranscriber returns a transcriber producing text in language, a BCP-47
// code such as "zh-TW".
func NewTranscriber(gen Generator, modelName, language string) *Transcriber {
	if modelName == "" {
		modelName = DefaultModel
	}
	if language == "" {
		language = "zh-TW"
	}
	return &Transcriber{gen: gen, model: modelName, language: language}
}

func (t *Transcriber) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	prompt := fmt.Sprintf("請將這段錄音逐字轉錄為文字（語言：%s）。只輸出轉錄內容，不要加任何說明。", t.language)
	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(prompt),
	}, genai.RoleUser)

	resp, err := t.gen.GenerateContent(ctx, t.model, []*genai.Content{content}, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
