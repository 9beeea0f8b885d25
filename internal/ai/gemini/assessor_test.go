package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riskpair/riskpair/internal/applicant"
	"github.com/riskpair/riskpair/internal/assessment"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	lastSchema *genai.Schema
}

func (s *stubGenerator) GenerateJSON(_ context.Context, prompt string, schema *genai.Schema) (string, error) {
	s.lastPrompt = prompt
	s.lastSchema = schema
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testApplicant() *applicant.Applicant {
	return &applicant.Applicant{
		ID:               "app-1",
		FullName:         "Jane Roe",
		Age:              35,
		MonthlyIncome:    3500,
		MonthlyDebt:      800,
		EmploymentType:   applicant.EmploymentFullTime,
		EmploymentYears:  4,
		CreditScore:      720,
		LoanAmount:       10000,
		LoanTermMonths:   36,
		MissedPayments2Y: 0,
	}
}

func liveAssessor(stub *stubGenerator) *Assessor {
	a := NewAssessor(&Config{APIKey: "test-key"}, zap.NewNop())
	a.generator = stub
	return a
}

func TestAssessLiveCall(t *testing.T) {
	stub := &stubGenerator{response: `{
		"score": 74,
		"riskLevel": "Medium",
		"recommendedInterestRate": 13.9,
		"maxApprovedAmount": 12000,
		"reasoning": ["stable employment", "moderate debt load"]
	}`}
	a := liveAssessor(stub)

	result := a.Assess(context.Background(), testApplicant())

	if result.Method != assessment.MethodAI {
		t.Fatalf("expected method AI, got %s", result.Method)
	}
	if result.Score != 74 {
		t.Fatalf("expected score 74, got %v", result.Score)
	}
	if result.RiskLevel != assessment.RiskMedium {
		t.Fatalf("expected risk level MEDIUM, got %s", result.RiskLevel)
	}
	if result.InterestRate != 13.9 {
		t.Fatalf("expected rate 13.9, got %v", result.InterestRate)
	}
	if result.MaxApproved != 12000 {
		t.Fatalf("expected max approved 12000, got %v", result.MaxApproved)
	}
	if len(result.Reasoning) != 2 {
		t.Fatalf("expected 2 reasoning entries, got %v", result.Reasoning)
	}
	if result.Timestamp.IsZero() {
		t.Fatal("expected a completion timestamp")
	}

	if !strings.Contains(stub.lastPrompt, `"id": "app-1"`) {
		t.Fatalf("expected the applicant payload in the prompt, got: %s", stub.lastPrompt)
	}
	if !strings.Contains(stub.lastPrompt, "senior credit risk analyst") {
		t.Fatal("expected the analyst framing in the prompt")
	}
	if stub.lastSchema == nil || len(stub.lastSchema.Required) != 5 {
		t.Fatalf("expected the five-field response schema, got %+v", stub.lastSchema)
	}
}

func TestAssessTierLabelMapping(t *testing.T) {
	tests := []struct {
		label string
		level assessment.RiskLevel
	}{
		{"Low", assessment.RiskLow},
		{"medium", assessment.RiskMedium},
		{"HIGH", assessment.RiskHigh},
		{"Critical", assessment.RiskCritical},
		{"Unheard-of", assessment.RiskMedium},
		{"", assessment.RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			stub := &stubGenerator{response: `{
				"score": 50,
				"riskLevel": "` + tt.label + `",
				"recommendedInterestRate": 15,
				"maxApprovedAmount": 8000,
				"reasoning": ["r"]
			}`}
			a := liveAssessor(stub)

			result := a.Assess(context.Background(), testApplicant())
			if result.RiskLevel != tt.level {
				t.Fatalf("label %q: expected %s, got %s", tt.label, tt.level, result.RiskLevel)
			}
		})
	}
}

func TestAssessExtractsFencedJSON(t *testing.T) {
	stub := &stubGenerator{response: "```json\n" + `{
		"score": 61,
		"riskLevel": "Medium",
		"recommendedInterestRate": 14.5,
		"maxApprovedAmount": 9000,
		"reasoning": ["ok"]
	}` + "\n```"}
	a := liveAssessor(stub)

	result := a.Assess(context.Background(), testApplicant())
	if result.Score != 61 {
		t.Fatalf("expected score 61 from fenced payload, got %v", result.Score)
	}
}

func TestAssessClampsOutOfRangeScore(t *testing.T) {
	stub := &stubGenerator{response: `{
		"score": 140,
		"riskLevel": "Low",
		"recommendedInterestRate": 9,
		"maxApprovedAmount": 20000,
		"reasoning": ["r"]
	}`}
	a := liveAssessor(stub)

	result := a.Assess(context.Background(), testApplicant())
	if result.Score != 100 {
		t.Fatalf("expected clamped score 100, got %v", result.Score)
	}
}

func TestAssessDegradedOnFailure(t *testing.T) {
	tests := []struct {
		name string
		stub *stubGenerator
	}{
		{"call error", &stubGenerator{err: errors.New("boom")}},
		{"unparseable payload", &stubGenerator{response: "not json"}},
		{"missing score", &stubGenerator{response: `{"riskLevel": "Low", "recommendedInterestRate": 10, "maxApprovedAmount": 1, "reasoning": ["r"]}`}},
		{"empty reasoning", &stubGenerator{response: `{"score": 50, "riskLevel": "Low", "recommendedInterestRate": 10, "maxApprovedAmount": 1, "reasoning": []}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := liveAssessor(tt.stub)

			result := a.Assess(context.Background(), testApplicant())

			if result.Score != 0 || result.RiskLevel != assessment.RiskCritical {
				t.Fatalf("expected degraded 0/CRITICAL, got %v/%s", result.Score, result.RiskLevel)
			}
			if result.InterestRate != 0 || result.MaxApproved != 0 {
				t.Fatalf("expected degraded zero rate and amount, got %v/%v", result.InterestRate, result.MaxApproved)
			}
			if len(result.Reasoning) != 1 {
				t.Fatalf("expected a single degraded reasoning entry, got %v", result.Reasoning)
			}
		})
	}
}

func TestAssessDemoModeSafeBranch(t *testing.T) {
	a := NewAssessor(&Config{DemoDelay: time.Millisecond}, zap.NewNop())

	result := a.Assess(context.Background(), testApplicant())

	if result.Score != 88 || result.RiskLevel != assessment.RiskLow {
		t.Fatalf("expected demo safe branch 88/LOW, got %v/%s", result.Score, result.RiskLevel)
	}
	if result.InterestRate != 10.5 {
		t.Fatalf("expected rate 10.5, got %v", result.InterestRate)
	}
	if result.MaxApproved != 5*3500 {
		t.Fatalf("expected 5x monthly income, got %v", result.MaxApproved)
	}
	if !mentionsDemoMode(result.Reasoning) {
		t.Fatalf("expected a demo-mode reasoning entry, got %v", result.Reasoning)
	}
}

func TestAssessDemoModeRiskyBranch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *applicant.Applicant)
	}{
		{"high debt load", func(a *applicant.Applicant) { a.MonthlyDebt = 1500 }},
		{"low bureau score", func(a *applicant.Applicant) { a.CreditScore = 550 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testApplicant()
			tt.mutate(app)

			a := NewAssessor(&Config{DemoDelay: time.Millisecond}, zap.NewNop())
			result := a.Assess(context.Background(), app)

			if result.Score != 55 || result.RiskLevel != assessment.RiskHigh {
				t.Fatalf("expected demo risky branch 55/HIGH, got %v/%s", result.Score, result.RiskLevel)
			}
			if result.InterestRate != 18.5 {
				t.Fatalf("expected rate 18.5, got %v", result.InterestRate)
			}
			if result.MaxApproved != 5000 {
				t.Fatalf("expected capped amount 5000, got %v", result.MaxApproved)
			}
			if !mentionsDemoMode(result.Reasoning) {
				t.Fatalf("expected a demo-mode reasoning entry, got %v", result.Reasoning)
			}
		})
	}
}

func TestAssessDemoModeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAssessor(&Config{DemoDelay: time.Second}, zap.NewNop())
	result := a.Assess(ctx, testApplicant())

	if result.Score != 0 || result.RiskLevel != assessment.RiskCritical {
		t.Fatalf("expected degraded result after cancellation, got %v/%s", result.Score, result.RiskLevel)
	}
}

func TestAssessUnreadableKeyFileDegrades(t *testing.T) {
	a := NewAssessor(&Config{APIKeyFile: "/nonexistent/gemini.key"}, zap.NewNop())

	result := a.Assess(context.Background(), testApplicant())

	if result.Score != 0 || result.RiskLevel != assessment.RiskCritical {
		t.Fatalf("expected degraded result for unreadable key file, got %v/%s", result.Score, result.RiskLevel)
	}
}

func mentionsDemoMode(reasons []string) bool {
	for _, reason := range reasons {
		if strings.Contains(strings.ToUpper(reason), "DEMO MODE") {
			return true
		}
	}
	return false
}
