// Package gemini implements the model execution mode and audio transcription
// on top of the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/harrisonrobin/taskdispatch/pkg/analysis"
	"github.com/harrisonrobin/taskdispatch/pkg/classify"
	"github.com/harrisonrobin/taskdispatch/pkg/ingest"
	"github.com/harrisonrobin/taskdispatch/pkg/model"
	"github.com/harrisonrobin/taskdispatch/pkg/summary"
)

const DefaultModel = "gemini-2.5-flash"

// Generator is the subset of the Gemini models service used here.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// Analyzer extracts tasks with the model and re-validates every draft with
// the classification engine.
type Analyzer struct {
	gen    Generator
	model  string
	engine *classify.Engine
	logger *zap.Logger
}

// NewAnalyzer returns a model analyzer. An empty model name selects
// DefaultModel; a nil engine selects the canonical rules.
func NewAnalyzer(gen Generator, modelName string, engine *classify.Engine, logger *zap.Logger) *Analyzer {
	if modelName == "" {
		modelName = DefaultModel
	}
	if engine == nil {
		engine = classify.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{gen: gen, model: modelName, engine: engine, logger: logger}
}

type response struct {
	Tasks   []classify.Draft `json:"tasks"`
	Summary string           `json:"summary"`
}

// Analyze sends the batch in order and decodes the schema-constrained reply.
func (a *Analyzer) Analyze(ctx context.Context, batch *ingest.Batch, ref time.Time) (*analysis.Result, error) {
	parts := make([]*genai.Part, 0, len(batch.Parts))
	for _, p := range batch.Parts {
		switch p.Kind {
		case ingest.PartBlob:
			parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
		default:
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
	}
	if len(parts) == 0 {
		return nil, ingest.ErrEmptyInput
	}

	tax := a.engine.Taxonomy()
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(Instruction(tax, ref), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ResponseSchema(tax),
		Temperature:       genai.Ptr[float32](0),
	}

	a.logger.Debug("calling model", zap.String("model", a.model), zap.Int("parts", len(parts)))
	resp, err := a.gen.GenerateContent(ctx, a.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	raw := strings.TrimSpace(resp.Text())
	if raw == "" {
		return nil, &analysis.MalformedModelOutputError{Reason: "empty response"}
	}

	var out response
	if err := json.Unmarshal([]byte(stripFence(raw)), &out); err != nil {
		return nil, &analysis.MalformedModelOutputError{Reason: err.Error(), Raw: raw}
	}

	tasks := make([]model.Task, 0, len(out.Tasks))
	for i, d := range out.Tasks {
		t, err := a.engine.Normalize(d, ref)
		if err != nil {
			return nil, &analysis.MalformedModelOutputError{Reason: fmt.Sprintf("task %d: %v", i+1, err), Raw: raw}
		}
		tasks = append(tasks, t)
	}
	a.logger.Info("model analysis complete", zap.Int("tasks", len(tasks)))

	sum := strings.TrimSpace(out.Summary)
	if sum == "" {
		sum = summary.Summarize(batch.Text(), tasks, batch.LongForm)
	}
	return &analysis.Result{Tasks: tasks, Summary: sum}, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
