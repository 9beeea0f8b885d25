package evaluation

import (
	"context"
	"fmt"

	"github.com/riskpair/riskpair/internal/ai"
	"github.com/riskpair/riskpair/internal/applicant"
	"github.com/riskpair/riskpair/internal/assessment"
	"github.com/riskpair/riskpair/internal/rules"
	"go.uber.org/zap"
)

// Evaluator runs both scoring methods over one applicant and assembles the
// comparison record. The two scorers are independent computations over the
// same immutable input; neither depends on the other's outcome.
type Evaluator struct {
	assessor ai.Assessor
	logger   *zap.Logger
}

// New creates an Evaluator backed by the provided AI assessor.
func New(assessor ai.Assessor, logger *zap.Logger) (*Evaluator, error) {
	if assessor == nil {
		return nil, fmt.Errorf("ai assessor is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{assessor: assessor, logger: logger}, nil
}

// Evaluate produces a record with both assessments populated and status
// Pending. Invalid input is the only failure surfaced to the caller: the
// scorers themselves never fail. The AI call runs while the rule engine
// computes, and both complete before the record is returned.
func (e *Evaluator) Evaluate(ctx context.Context, app *applicant.Applicant) (*assessment.Record, error) {
	if err := app.Validate(); err != nil {
		return nil, fmt.Errorf("invalid applicant: %w", err)
	}

	aiCh := make(chan *assessment.Result, 1)
	go func() {
		aiCh <- e.assessor.Assess(ctx, app)
	}()

	traditional := rules.Assess(app)
	e.logResult(app, traditional)

	aiResult := <-aiCh
	e.logResult(app, aiResult)

	return &assessment.Record{
		Applicant:   app,
		Traditional: traditional,
		AI:          aiResult,
		Status:      assessment.StatusPending,
	}, nil
}

func (e *Evaluator) logResult(app *applicant.Applicant, result *assessment.Result) {
	e.logger.Info("assessment completed",
		zap.String("applicant_id", app.ID),
		zap.String("method", string(result.Method)),
		zap.Float64("score", result.Score),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs),
	)
}
