package rules

import (
	"fmt"
	"math"
	"time"

	"github.com/riskpair/riskpair/internal/applicant"
	"github.com/riskpair/riskpair/internal/assessment"
)

const (
	baseScore = 100.0

	// Flat policy ceiling: 40% of annual income, independent of score.
	maxAmountIncomeShare = 0.40

	penaltyHighDTI       = 30.0
	penaltyModerateDTI   = 15.0
	penaltyLowBureau     = 40.0
	penaltyMidBureau     = 15.0
	penaltyShortTenure   = 20.0
	penaltyMissedPayment = 15.0
)

// Assess scores an applicant with the fixed weighted rule set. It is pure and
// total: identical input always yields an identical score, level, rate,
// amount and reasoning.
func Assess(app *applicant.Applicant) *assessment.Result {
	start := time.Now()

	score := baseScore
	reasons := make([]string, 0, 4)

	if dti, ok := app.DTI(); ok {
		switch {
		case dti > 0.5:
			score -= penaltyHighDTI
			reasons = append(reasons, fmt.Sprintf("high DTI (%.1f%%)", dti*100))
		case dti > 0.35:
			score -= penaltyModerateDTI
			reasons = append(reasons, fmt.Sprintf("moderate DTI (%.1f%%)", dti*100))
		}
	}

	switch {
	case app.CreditScore < 600:
		score -= penaltyLowBureau
		reasons = append(reasons, "low external credit score")
	case app.CreditScore < 700:
		score -= penaltyMidBureau
	}

	if app.EmploymentYears < 1 {
		score -= penaltyShortTenure
		reasons = append(reasons, "employment tenure under 1 year")
	}

	if app.MissedPayments2Y > 0 {
		score -= penaltyMissedPayment * float64(app.MissedPayments2Y)
		reasons = append(reasons, fmt.Sprintf("%d recent missed payments", app.MissedPayments2Y))
	}

	score = math.Max(0, math.Min(100, score))

	level, rate := assessment.RiskLevelForScore(score)

	if len(reasons) == 0 {
		reasons = append(reasons, assessment.BaselineReason)
	}

	return &assessment.Result{
		Method:           assessment.MethodTraditional,
		Score:            math.Round(score),
		RiskLevel:        level,
		InterestRate:     rate,
		MaxApproved:      math.Round(app.MonthlyIncome * 12 * maxAmountIncomeShare),
		Reasoning:        reasons,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Timestamp:        time.Now(),
	}
}
