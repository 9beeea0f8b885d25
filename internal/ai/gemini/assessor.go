package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/riskpair/riskpair/internal/applicant"
	"github.com/riskpair/riskpair/internal/assessment"
	"github.com/riskpair/riskpair/internal/secrets"
	"github.com/riskpair/riskpair/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	defaultDemoDelay    = 1500 * time.Millisecond

	// Demo-mode heuristics.
	demoRiskyDTI         = 0.4
	demoRiskyBureauScore = 600

	degradedReason = "could not reach the AI assessment service; verify your connection and API key"
)

// responseSchema constrains the service to exactly the five fields of an
// assessment. Unknown risk level labels are tolerated on the way back in.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score": {
			Type:        genai.TypeNumber,
			Description: "Calculated credit score from 0 to 100",
		},
		"riskLevel": {
			Type: genai.TypeString,
			Enum: []string{"Low", "Medium", "High", "Critical"},
		},
		"recommendedInterestRate": {
			Type:        genai.TypeNumber,
			Description: "Recommended annual interest rate in percent (e.g. 12.5)",
		},
		"maxApprovedAmount": {
			Type:        genai.TypeNumber,
			Description: "Maximum suggested amount to approve",
		},
		"reasoning": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Key reasons for the decision, including subtle factors simple rule systems miss",
		},
	},
	Required: []string{"score", "riskLevel", "recommendedInterestRate", "maxApprovedAmount", "reasoning"},
}

type contentGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Config holds the Gemini assessor settings. Leaving both APIKey and
// APIKeyFile empty is a supported operating mode: assessments are then
// simulated locally instead of calling the service.
type Config struct {
	APIKey       string
	APIKeyFile   string
	Model        string
	DemoDelay    time.Duration
	MaxLogLength int
}

// Assessor scores applicants through Gemini. The underlying client is built
// lazily on first use so a missing credential never fails at startup. Assess
// never returns an error: every failure path resolves to a degraded result.
type Assessor struct {
	cfg       *Config
	logger    *zap.Logger
	maxLogLen int

	mu        sync.Mutex
	generator contentGenerator
}

// NewAssessor creates a Gemini-backed assessor. No credential lookup or
// network activity happens until the first Assess call.
func NewAssessor(cfg *Config, logger *zap.Logger) *Assessor {
	if cfg == nil {
		cfg = &Config{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Assessor{cfg: cfg, logger: logger, maxLogLen: maxLogLen}
}

// Assess runs one of three mutually exclusive paths: a local simulation when
// no credential is configured, a live structured call when it is, or a
// degraded worst-case result when the call fails or returns an unusable
// payload.
func (a *Assessor) Assess(ctx context.Context, app *applicant.Applicant) *assessment.Result {
	start := time.Now()

	key, configured, err := a.credential()
	if !configured {
		return a.simulate(ctx, app, start)
	}
	if err != nil {
		return a.degraded(start, err)
	}

	generator, err := a.ensureGenerator(ctx, key)
	if err != nil {
		return a.degraded(start, err)
	}

	payload, err := json.MarshalIndent(app, "", "  ")
	if err != nil {
		return a.degraded(start, fmt.Errorf("marshal applicant payload: %w", err))
	}

	prompt := buildPrompt(string(payload))

	a.logger.Debug("gemini assessment request",
		zap.String("applicant_id", app.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := generator.GenerateJSON(ctx, prompt, responseSchema)
	if err != nil {
		return a.degraded(start, err)
	}

	a.logger.Debug("gemini assessment response",
		zap.String("applicant_id", app.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	result, err := parseResponse(raw)
	if err != nil {
		return a.degraded(start, err)
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	result.Timestamp = time.Now()

	return result
}

// credential resolves the API key. configured is false when neither an inline
// key nor a key file is set, which selects the demo path.
func (a *Assessor) credential() (key string, configured bool, err error) {
	if strings.TrimSpace(a.cfg.APIKey) == "" && strings.TrimSpace(a.cfg.APIKeyFile) == "" {
		return "", false, nil
	}

	key, err = secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: a.cfg.APIKey,
		File:  a.cfg.APIKeyFile,
	})
	if err != nil {
		return "", true, err
	}

	return key, true, nil
}

func (a *Assessor) ensureGenerator(ctx context.Context, apiKey string) (contentGenerator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.generator != nil {
		return a.generator, nil
	}

	generator, err := NewGenerator(ctx, apiKey, a.cfg.Model)
	if err != nil {
		return nil, err
	}

	a.generator = generator
	return generator, nil
}

// simulate derives a deterministic pseudo-AI result from simple heuristics.
// The artificial delay keeps the observable timing close to a live call and
// honors context cancellation.
func (a *Assessor) simulate(ctx context.Context, app *applicant.Applicant, start time.Time) *assessment.Result {
	a.logger.Warn("no gemini api key configured, running assessment in demo mode")

	delay := a.cfg.DemoDelay
	if delay == 0 {
		delay = defaultDemoDelay
	}

	if err := utils.WaitFor(ctx, delay); err != nil {
		return a.degraded(start, err)
	}

	dti, ok := app.DTI()
	risky := !ok || dti > demoRiskyDTI || app.CreditScore < demoRiskyBureauScore

	result := &assessment.Result{
		Method:       assessment.MethodAI,
		Score:        88,
		RiskLevel:    assessment.RiskLow,
		InterestRate: 10.5,
		MaxApproved:  app.MonthlyIncome * 5,
	}
	branchReason := "simulation: solid profile and low risk"

	if risky {
		result.Score = 55
		result.RiskLevel = assessment.RiskHigh
		result.InterestRate = 18.5
		result.MaxApproved = 5000
		branchReason = "simulation: elevated risk due to debt load"
	}

	result.Reasoning = []string{
		"DEMO MODE: no Gemini API key was found",
		branchReason,
		"set ai.gemini.api-key-file in the config or the GEMINI_API_KEY environment variable to enable live assessments",
	}
	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	result.Timestamp = time.Now()

	return result
}

// degraded is the worst-case result returned when the service call fails or
// its payload is unusable. It never propagates the underlying error.
func (a *Assessor) degraded(start time.Time, err error) *assessment.Result {
	a.logger.Warn("gemini assessment failed, returning degraded result", zap.Error(err))

	return &assessment.Result{
		Method:           assessment.MethodAI,
		Score:            0,
		RiskLevel:        assessment.RiskCritical,
		InterestRate:     0,
		MaxApproved:      0,
		Reasoning:        []string{degradedReason},
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Timestamp:        time.Now(),
	}
}

func buildPrompt(applicantJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Applicant data:\n{{APPLICANT_JSON}}\n\nJSON Response:"
	}
	return strings.ReplaceAll(template, "{{APPLICANT_JSON}}", applicantJSON)
}

func parseResponse(raw string) (*assessment.Result, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		return nil, fmt.Errorf("gemini response is missing a numeric score")
	}
	score = math.Max(0, math.Min(100, score))

	rate := coerceFloat(data["recommendedInterestRate"])
	if math.IsNaN(rate) {
		return nil, fmt.Errorf("gemini response is missing a recommended interest rate")
	}

	maxApproved := coerceFloat(data["maxApprovedAmount"])
	if math.IsNaN(maxApproved) {
		return nil, fmt.Errorf("gemini response is missing a max approved amount")
	}

	reasoning := coerceStrings(data["reasoning"])
	if len(reasoning) == 0 {
		return nil, fmt.Errorf("gemini response is missing reasoning")
	}

	return &assessment.Result{
		Method:       assessment.MethodAI,
		Score:        score,
		RiskLevel:    riskLevelFromLabel(coerceString(data["riskLevel"])),
		InterestRate: rate,
		MaxApproved:  maxApproved,
		Reasoning:    reasoning,
	}, nil
}

// riskLevelFromLabel maps the wire label onto the internal scale. Anything
// unrecognized lands on Medium rather than failing the whole response.
func riskLevelFromLabel(label string) assessment.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "low":
		return assessment.RiskLow
	case "medium":
		return assessment.RiskMedium
	case "high":
		return assessment.RiskHigh
	case "critical":
		return assessment.RiskCritical
	default:
		return assessment.RiskMedium
	}
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			result = append(result, s)
		}
	}
	return result
}
