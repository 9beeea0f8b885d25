package ai

import (
	"context"

	"github.com/riskpair/riskpair/internal/applicant"
	"github.com/riskpair/riskpair/internal/assessment"
)

// Assessor scores an applicant through a generative model. Implementations
// must never fail: misconfiguration, transport errors and unusable payloads
// all resolve to a well-formed (degraded or simulated) result so the caller
// can always present two assessments side by side.
type Assessor interface {
	Assess(ctx context.Context, app *applicant.Applicant) *assessment.Result
}
