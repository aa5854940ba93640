package regulatory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/regulatory"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
)

// ChatClient is the part of the OpenAI client the predictor uses
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIPredictor asks a chat model to assess upcoming changes and falls
// back to the heuristic predictor when the model is unavailable or its
// answer cannot be used
type OpenAIPredictor struct {
	client   ChatClient
	model    string
	fallback *HeuristicPredictor
	logger   *logger.Logger
}

// NewOpenAIPredictor creates a predictor using the given API key
func NewOpenAIPredictor(apiKey, model string, log *logger.Logger) *OpenAIPredictor {
	return NewOpenAIPredictorWithClient(openai.NewClient(apiKey), model, log)
}

// NewOpenAIPredictorWithClient creates a predictor over an existing client
func NewOpenAIPredictorWithClient(client ChatClient, model string, log *logger.Logger) *OpenAIPredictor {
	if model == "" {
		model = openai.GPT4oMini
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OpenAIPredictor{
		client:   client,
		model:    model,
		fallback: NewHeuristicPredictor(),
		logger:   log.Component("openai_predictor"),
	}
}

const systemPrompt = `You assess how upcoming regulatory changes affect an organization's legal document compliance.
Answer with a JSON object {"areas": [...]} holding one entry per change with the fields:
change_id, area, framework, risk_score (0 to 1), impact_description, complexity (low, medium or high), deadline (YYYY-MM-DD).`

type predictedArea struct {
	ChangeID          string  `json:"change_id"`
	Area              string  `json:"area"`
	Framework         string  `json:"framework"`
	RiskScore         float64 `json:"risk_score"`
	ImpactDescription string  `json:"impact_description"`
	Complexity        string  `json:"complexity"`
	Deadline          string  `json:"deadline"`
}

type predictionAnswer struct {
	Areas []predictedArea `json:"areas"`
}

// PredictImpacts returns the model's risk areas, or the heuristic ones
func (p *OpenAIPredictor) PredictImpacts(ctx context.Context, params regulatory.ImpactParams) ([]compliance.RiskArea, error) {
	if len(params.Changes) == 0 {
		return []compliance.RiskArea{}, nil
	}

	areas, err := p.ask(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.WithError(err).Warn("Falling back to heuristic impact prediction")
		return p.fallback.PredictImpacts(ctx, params)
	}
	return areas, nil
}

func (p *OpenAIPredictor) ask(ctx context.Context, params regulatory.ImpactParams) ([]compliance.RiskArea, error) {
	input, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prediction input: %w", err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(input)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		MaxTokens:      1200,
		Temperature:    0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	var answer predictionAnswer
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &answer); err != nil {
		return nil, fmt.Errorf("failed to decode model answer: %w", err)
	}
	if len(answer.Areas) == 0 {
		return nil, fmt.Errorf("model answer has no areas")
	}

	areas := make([]compliance.RiskArea, 0, len(answer.Areas))
	for _, a := range answer.Areas {
		area, err := a.toRiskArea(params.Now)
		if err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}
	return areas, nil
}

func (a predictedArea) toRiskArea(now time.Time) (compliance.RiskArea, error) {
	if a.Area == "" || a.Framework == "" {
		return compliance.RiskArea{}, fmt.Errorf("model answer for change %q lacks an area or framework", a.ChangeID)
	}
	if math.IsNaN(a.RiskScore) || a.RiskScore < 0 || a.RiskScore > 1 {
		return compliance.RiskArea{}, fmt.Errorf("model answer for change %q has risk score %v outside [0,1]", a.ChangeID, a.RiskScore)
	}

	deadline, err := time.Parse("2006-01-02", a.Deadline)
	if err != nil {
		return compliance.RiskArea{}, fmt.Errorf("model answer for change %q has bad deadline %q", a.ChangeID, a.Deadline)
	}
	if deadline.Before(now) {
		deadline = now.Add(minLeadTime)
	}

	complexity := strings.ToLower(a.Complexity)
	switch complexity {
	case compliance.ComplexityLow, compliance.ComplexityMedium, compliance.ComplexityHigh:
	default:
		complexity = compliance.ComplexityMedium
	}

	return compliance.RiskArea{
		Area:              a.Area,
		Framework:         a.Framework,
		RiskScore:         math.Min(compliance.MaxRiskScore, a.RiskScore),
		ImpactDescription: a.ImpactDescription,
		Deadline:          deadline,
		Complexity:        complexity,
	}, nil
}
