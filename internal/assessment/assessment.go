package assessment

import (
	"strings"
	"time"

	"github.com/riskpair/riskpair/internal/applicant"
)

// Method identifies which scoring path produced a result.
type Method string

const (
	MethodTraditional Method = "TRADITIONAL"
	MethodAI          Method = "AI"
)

// RiskLevel is the ordered risk classification. Low is the best outcome.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// BaselineReason substitutes for an empty reasoning list so a result always
// carries at least one human-readable factor.
const BaselineReason = "standard credit profile"

// RiskLevelForScore maps a clamped 0-100 score onto the fixed risk bands.
// Band lower bounds are inclusive: a score of exactly 40, 60 or 80 resolves
// to the better band.
func RiskLevelForScore(score float64) (RiskLevel, float64) {
	switch {
	case score < 40:
		return RiskCritical, 25.0
	case score < 60:
		return RiskHigh, 18.5
	case score < 80:
		return RiskMedium, 14.5
	default:
		return RiskLow, 10.5
	}
}

// Result is the uniform output of either scoring method. It is built once by
// its originating scorer and never mutated.
type Result struct {
	Method           Method    `json:"method"`
	Score            float64   `json:"score"`
	RiskLevel        RiskLevel `json:"risk_level"`
	InterestRate     float64   `json:"recommended_interest_rate"`
	MaxApproved      float64   `json:"max_approved_amount"`
	Reasoning        []string  `json:"reasoning"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Timestamp        time.Time `json:"timestamp"`
}

// Status is the lifecycle state of an application record.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Record pairs one applicant with the two assessments produced for it. The
// final status transition is a human action recorded on the record, not a
// computed outcome.
type Record struct {
	Applicant     *applicant.Applicant `json:"applicant"`
	Traditional   *Result              `json:"traditional_assessment"`
	AI            *Result              `json:"ai_assessment"`
	Status        Status               `json:"status"`
	FinalDecision string               `json:"final_decision,omitempty"`
}

// Approve records a human approval with an optional note.
func (r *Record) Approve(note string) {
	r.Status = StatusApproved
	r.FinalDecision = strings.TrimSpace(note)
}

// Reject records a human rejection with an optional note.
func (r *Record) Reject(note string) {
	r.Status = StatusRejected
	r.FinalDecision = strings.TrimSpace(note)
}
