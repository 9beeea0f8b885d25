package applicant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// EmploymentType is the applicant's employment category.
type EmploymentType string

const (
	EmploymentFullTime     EmploymentType = "full_time"
	EmploymentPartTime     EmploymentType = "part_time"
	EmploymentSelfEmployed EmploymentType = "self_employed"
	EmploymentUnemployed   EmploymentType = "unemployed"
	EmploymentRetired      EmploymentType = "retired"
)

var employmentTypes = map[EmploymentType]struct{}{
	EmploymentFullTime:     {},
	EmploymentPartTime:     {},
	EmploymentSelfEmployed: {},
	EmploymentUnemployed:   {},
	EmploymentRetired:      {},
}

// Valid reports whether the employment type is one of the known categories.
func (e EmploymentType) Valid() bool {
	_, ok := employmentTypes[e]
	return ok
}

// Applicant is the immutable input consumed by both scoring methods. It is
// created once per evaluation request and never mutated afterwards.
type Applicant struct {
	ID               string         `json:"id" mapstructure:"id"`
	FullName         string         `json:"full_name" mapstructure:"full_name"`
	Age              int            `json:"age" mapstructure:"age"`
	MonthlyIncome    float64        `json:"monthly_income" mapstructure:"monthly_income"`
	MonthlyDebt      float64        `json:"monthly_debt" mapstructure:"monthly_debt"`
	EmploymentType   EmploymentType `json:"employment_type" mapstructure:"employment_type"`
	EmploymentYears  float64        `json:"employment_years" mapstructure:"employment_years"`
	CreditScore      int            `json:"credit_score" mapstructure:"credit_score"`
	LoanAmount       float64        `json:"loan_amount" mapstructure:"loan_amount"`
	LoanTermMonths   int            `json:"loan_term_months" mapstructure:"loan_term_months"`
	MissedPayments2Y int            `json:"missed_payments_2y" mapstructure:"missed_payments_2y"`
}

// FromMap decodes a loosely-typed document (parsed JSON or YAML) into an
// Applicant. Numeric fields given as strings are accepted. A missing id is
// replaced with a generated one.
func FromMap(data map[string]any) (*Applicant, error) {
	var app Applicant

	cfg := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &app,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build applicant decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode applicant: %w", err)
	}

	if strings.TrimSpace(app.ID) == "" {
		app.ID = uuid.NewString()
	}

	return &app, nil
}

// Validate checks the applicant against the input contract. A nil or
// malformed applicant is a caller error and the only condition an evaluation
// surfaces to its caller.
func (a *Applicant) Validate() error {
	if a == nil {
		return errors.New("applicant is required")
	}

	if strings.TrimSpace(a.FullName) == "" {
		return errors.New("applicant full name is required")
	}

	if a.Age <= 0 {
		return fmt.Errorf("applicant age must be positive, got %d", a.Age)
	}

	// Zero or negative income makes the debt-to-income ratio undefined and
	// is rejected here rather than propagated into the scorers.
	if a.MonthlyIncome <= 0 {
		return fmt.Errorf("monthly income must be positive, got %.2f", a.MonthlyIncome)
	}

	if a.MonthlyDebt < 0 {
		return fmt.Errorf("monthly debt must not be negative, got %.2f", a.MonthlyDebt)
	}

	if !a.EmploymentType.Valid() {
		return fmt.Errorf("unknown employment type: %q", a.EmploymentType)
	}

	if a.EmploymentYears < 0 {
		return fmt.Errorf("employment years must not be negative, got %.2f", a.EmploymentYears)
	}

	if a.LoanAmount <= 0 {
		return fmt.Errorf("loan amount must be positive, got %.2f", a.LoanAmount)
	}

	if a.LoanTermMonths <= 0 {
		return fmt.Errorf("loan term months must be positive, got %d", a.LoanTermMonths)
	}

	if a.MissedPayments2Y < 0 {
		return fmt.Errorf("missed payments count must not be negative, got %d", a.MissedPayments2Y)
	}

	return nil
}

// DTI returns the debt-to-income ratio. ok is false when monthly income is
// not positive and the ratio is undefined.
func (a *Applicant) DTI() (float64, bool) {
	if a == nil || a.MonthlyIncome <= 0 {
		return 0, false
	}
	return a.MonthlyDebt / a.MonthlyIncome, true
}
