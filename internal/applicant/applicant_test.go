package applicant

import (
	"strings"
	"testing"
)

func validApplicant() *Applicant {
	return &Applicant{
		ID:               "app-1",
		FullName:         "Jane Roe",
		Age:              35,
		MonthlyIncome:    3500,
		MonthlyDebt:      800,
		EmploymentType:   EmploymentFullTime,
		EmploymentYears:  4,
		CreditScore:      720,
		LoanAmount:       10000,
		LoanTermMonths:   36,
		MissedPayments2Y: 0,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(a *Applicant)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Applicant) {},
		},
		{
			name:    "missing name",
			mutate:  func(a *Applicant) { a.FullName = "  " },
			wantErr: "full name",
		},
		{
			name:    "zero income",
			mutate:  func(a *Applicant) { a.MonthlyIncome = 0 },
			wantErr: "monthly income",
		},
		{
			name:    "negative income",
			mutate:  func(a *Applicant) { a.MonthlyIncome = -100 },
			wantErr: "monthly income",
		},
		{
			name:    "negative debt",
			mutate:  func(a *Applicant) { a.MonthlyDebt = -1 },
			wantErr: "monthly debt",
		},
		{
			name:    "unknown employment type",
			mutate:  func(a *Applicant) { a.EmploymentType = "gig" },
			wantErr: "employment type",
		},
		{
			name:    "negative tenure",
			mutate:  func(a *Applicant) { a.EmploymentYears = -0.5 },
			wantErr: "employment years",
		},
		{
			name:    "zero loan amount",
			mutate:  func(a *Applicant) { a.LoanAmount = 0 },
			wantErr: "loan amount",
		},
		{
			name:    "zero term",
			mutate:  func(a *Applicant) { a.LoanTermMonths = 0 },
			wantErr: "loan term",
		},
		{
			name:    "negative missed payments",
			mutate:  func(a *Applicant) { a.MissedPayments2Y = -1 },
			wantErr: "missed payments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := validApplicant()
			tt.mutate(app)

			err := app.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateNilApplicant(t *testing.T) {
	t.Parallel()

	var app *Applicant
	if err := app.Validate(); err == nil {
		t.Fatal("expected an error for nil applicant")
	}
}

func TestDTI(t *testing.T) {
	t.Parallel()

	app := validApplicant()
	dti, ok := app.DTI()
	if !ok {
		t.Fatal("expected a defined ratio")
	}
	if want := 800.0 / 3500.0; dti != want {
		t.Fatalf("expected dti %v, got %v", want, dti)
	}

	app.MonthlyIncome = 0
	if _, ok := app.DTI(); ok {
		t.Fatal("expected undefined ratio for zero income")
	}
}

func TestFromMap(t *testing.T) {
	t.Parallel()

	app, err := FromMap(map[string]any{
		"full_name":          "Jane Roe",
		"age":                35,
		"monthly_income":     "3500", // strings are accepted for numeric fields
		"monthly_debt":       800,
		"employment_type":    "full_time",
		"employment_years":   4,
		"credit_score":       720,
		"loan_amount":        10000,
		"loan_term_months":   36,
		"missed_payments_2y": 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if app.ID == "" {
		t.Fatal("expected a generated id")
	}
	if app.MonthlyIncome != 3500 {
		t.Fatalf("expected weakly-typed income 3500, got %v", app.MonthlyIncome)
	}
	if app.EmploymentType != EmploymentFullTime {
		t.Fatalf("unexpected employment type: %s", app.EmploymentType)
	}
	if err := app.Validate(); err != nil {
		t.Fatalf("decoded applicant must validate: %v", err)
	}
}

func TestFromMapKeepsProvidedID(t *testing.T) {
	t.Parallel()

	app, err := FromMap(map[string]any{"id": "custom-7", "full_name": "Jane Roe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.ID != "custom-7" {
		t.Fatalf("expected provided id to survive, got %q", app.ID)
	}
}
