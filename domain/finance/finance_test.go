package finance

import (
	"errors"
	"math"
	"testing"
)

func TestNewLoan(t *testing.T) {
	t.Parallel()

	l, err := NewLoan(200, 20000, 5000, DefaultRate, InitialTerm)
	if err != nil {
		t.Fatalf("NewLoan() error = %v", err)
	}
	if l.Amount != 15000 {
		t.Errorf("Amount = %v, want 15000", l.Amount)
	}

	r := DefaultRate / 12
	f := math.Pow(1+r, 120)
	if want := math.Floor(15000 * f); l.TotalRepayment != want {
		t.Errorf("TotalRepayment = %v, want %v", l.TotalRepayment, want)
	}
	if want := math.Ceil(15000 * r * f / (f - 1)); l.MonthlyPayment != want {
		t.Errorf("MonthlyPayment = %v, want %v", l.MonthlyPayment, want)
	}
	if l.WeeklyPayment() != l.MonthlyPayment/4 {
		t.Errorf("WeeklyPayment() = %v", l.WeeklyPayment())
	}
}

func TestNewLoan_CappedByIncome(t *testing.T) {
	t.Parallel()

	// 50/week → 200/month → 12000 over five years.
	l, err := NewLoan(50, 40000, 0, DefaultRate, InitialTerm)
	if err != nil {
		t.Fatalf("NewLoan() error = %v", err)
	}
	if l.Amount != 12000 {
		t.Errorf("Amount = %v, want 12000", l.Amount)
	}
}

func TestNewLoan_InvalidTerm(t *testing.T) {
	t.Parallel()

	if _, err := NewLoan(100, 1000, 0, DefaultRate, 0); !errors.Is(err, ErrInvalidTerm) {
		t.Errorf("error = %v, want ErrInvalidTerm", err)
	}
	if _, err := NewLoan(100, 1000, 0, -0.1, 10); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("error = %v, want ErrInvalidRate", err)
	}
}

func TestFindLoan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     LoanRequest
		outcome SearchOutcome
	}{
		{
			name:    "no headroom",
			req:     LoanRequest{Price: 10000, WeeklyIncome: 100, WeeklyCostIncrease: 150, LoanTaking: true, Rate: DefaultRate, LifetimeWeeks: 1040},
			outcome: NoIncomeHeadroom,
		},
		{
			name:    "averse",
			req:     LoanRequest{Price: 10000, WeeklyIncome: 100, Rate: DefaultRate, LifetimeWeeks: 1040},
			outcome: LoanAverse,
		},
		{
			name:    "bypass aversion",
			req:     LoanRequest{Price: 10000, WeeklyIncome: 100, Rate: DefaultRate, LifetimeWeeks: 1040, BypassAversion: true},
			outcome: LoanFound,
		},
		{
			name:    "funds cover price",
			req:     LoanRequest{Price: 10000, Funds: 12000, WeeklyIncome: 100, LoanTaking: true, Rate: DefaultRate, LifetimeWeeks: 1040},
			outcome: NothingToFinance,
		},
		{
			name:    "term exceeds lifetime",
			req:     LoanRequest{Price: 30000, WeeklyIncome: 100.1, WeeklyCostIncrease: 100, LoanTaking: true, Rate: DefaultRate, LifetimeWeeks: 624},
			outcome: TermExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FindLoan(tt.req)
			if err != nil {
				t.Fatalf("FindLoan() error = %v", err)
			}
			if got.Outcome != tt.outcome {
				t.Errorf("Outcome = %s, want %s", got.Outcome, tt.outcome)
			}
			if (got.Loan != nil) != (tt.outcome == LoanFound) {
				t.Errorf("Loan = %+v for outcome %s", got.Loan, got.Outcome)
			}
		})
	}
}

func TestFindLoan_PrincipalCappedByExpectedIncome(t *testing.T) {
	t.Parallel()

	req := LoanRequest{
		Price:              40000,
		WeeklyIncome:       100,
		WeeklyCostIncrease: 50,
		LifetimeWeeks:      20 * 52,
		Rate:               DefaultRate,
		LoanTaking:         true,
	}
	got, err := FindLoan(req)
	if err != nil {
		t.Fatalf("FindLoan() error = %v", err)
	}
	if got.Outcome != LoanFound {
		t.Fatalf("Outcome = %s, want %s", got.Outcome, LoanFound)
	}
	// 50 a week left over caps the principal at 5 years of 200 a month.
	if got.Loan.Amount != 12000 {
		t.Errorf("Amount = %v, want 12000", got.Loan.Amount)
	}
}

func TestFindLoan_PaymentFitsOrTermExceeded(t *testing.T) {
	t.Parallel()

	for income := 20.0; income <= 400; income += 20 {
		for price := 2000.0; price <= 40000; price += 4000 {
			req := LoanRequest{
				Price:              price,
				WeeklyIncome:       income,
				WeeklyCostIncrease: 10,
				LifetimeWeeks:      20 * 52,
				Rate:               DefaultRate,
				LoanTaking:         true,
			}
			got, err := FindLoan(req)
			if err != nil {
				t.Fatalf("FindLoan(%+v) error = %v", req, err)
			}
			switch got.Outcome {
			case LoanFound:
				if got.Loan.WeeklyPayment() > req.ExpectedIncome() {
					t.Errorf("payment %v exceeds expected income %v", got.Loan.WeeklyPayment(), req.ExpectedIncome())
				}
			case TermExceeded:
				if float64(got.Term) <= float64(req.LifetimeWeeks)/52 {
					t.Errorf("term %d within lifetime", got.Term)
				}
			}
		}
	}
}

func TestSubsidy_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		s       Subsidy
		wantErr bool
	}{
		{"plain", Subsidy{Name: "base", Technology: "heat_pump", Share: 0.3}, false},
		{"no technology", Subsidy{Name: "x", Share: 0.3}, true},
		{"zero share", Subsidy{Name: "x", Technology: "pellet"}, true},
		{"fossil", Subsidy{Name: "speed", Technology: "heat_pump", Share: 0.2, Condition: &Condition{Target: TargetSystem, Kind: ConditionReplacesFossil}}, false},
		{"fossil wrong target", Subsidy{Name: "speed", Technology: "heat_pump", Share: 0.2, Condition: &Condition{Target: TargetHouseowner, Kind: ConditionReplacesFossil}}, true},
		{"income", Subsidy{Name: "income", Technology: "heat_pump", Share: 0.3, Condition: &Condition{Target: TargetHouseowner, Kind: ConditionIncomeBelow, Threshold: 40000}}, false},
		{"income no threshold", Subsidy{Name: "income", Technology: "heat_pump", Share: 0.3, Condition: &Condition{Target: TargetHouseowner, Kind: ConditionIncomeBelow}}, true},
		{"unknown kind", Subsidy{Name: "x", Technology: "heat_pump", Share: 0.3, Condition: &Condition{Target: TargetSystem, Kind: "lucky"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSubsidy) {
				t.Errorf("error %v does not wrap ErrInvalidSubsidy", err)
			}
		})
	}
}

func TestTotal(t *testing.T) {
	t.Parallel()

	base := Subsidy{Name: "base", Technology: "heat_pump", Share: 0.3}
	speed := Subsidy{Name: "speed", Technology: "heat_pump", Share: 0.2,
		Condition: &Condition{Target: TargetSystem, Kind: ConditionReplacesFossil}}
	income := Subsidy{Name: "income", Technology: "heat_pump", Share: 0.3,
		Condition: &Condition{Target: TargetHouseowner, Kind: ConditionIncomeBelow, Threshold: 40000}}

	tests := []struct {
		name  string
		price float64
		rules []Subsidy
		app   Applicant
		want  float64
	}{
		{"no rules", 20000, nil, Applicant{}, 0},
		{"base only", 20000, []Subsidy{base}, Applicant{CurrentHeating: "pellet"}, 6000 + 1000},
		{"stacked", 20000, []Subsidy{base, speed}, Applicant{CurrentHeating: "gas"}, 10000 + 1000},
		{"share cap", 20000, []Subsidy{base, speed, income}, Applicant{CurrentHeating: "oil", AnnualIncome: 30000}, 14000 + 1000},
		{"amount cap", 40000, []Subsidy{base, speed, income}, Applicant{CurrentHeating: "oil", AnnualIncome: 30000}, 21000 + 2000},
		{"none eligible", 20000, []Subsidy{speed}, Applicant{CurrentHeating: "pellet"}, 1000},
		{"free system", 0, []Subsidy{base}, Applicant{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Total(tt.price, tt.rules, tt.app); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Total() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTotal_NeverExceedsCapPlusPremium(t *testing.T) {
	t.Parallel()

	rules := []Subsidy{
		{Name: "a", Technology: "heat_pump", Share: 0.5},
		{Name: "b", Technology: "heat_pump", Share: 0.4},
		{Name: "c", Technology: "heat_pump", Share: 0.35},
	}
	for price := 500.0; price < 100000; price *= 1.37 {
		for n := 0; n <= len(rules); n++ {
			got := Total(price, rules[:n], Applicant{})
			if limit := Cap(price) + PremiumShare*price; got > limit+1e-9 {
				t.Errorf("Total(%v, %d rules) = %v exceeds %v", price, n, got, limit)
			}
		}
	}
}

func TestCloneSubsidies(t *testing.T) {
	t.Parallel()

	orig := []Subsidy{{Name: "a", Technology: "heat_pump", Share: 0.2,
		Condition: &Condition{Target: TargetSystem, Kind: ConditionReplacesFossil, Fossil: []string{"oil"}}}}
	c := CloneSubsidies(orig)
	c[0].Condition.Fossil[0] = "gas"
	c[0].Share = 0.9
	if orig[0].Condition.Fossil[0] != "oil" || orig[0].Share != 0.2 {
		t.Error("clone shares state with original")
	}
}
