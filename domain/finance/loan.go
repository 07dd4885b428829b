// Package finance provides subsidies and loans for heating investments.
package finance

import (
	"fmt"
	"math"
)

// Loan defaults.
const (
	DefaultRate    = 0.0221 // annual
	InitialTerm    = 10     // years
	IncomeMultiple = 5      // max principal in annual net incomes
)

// Loan is an annuity loan attached to one heating-system candidate.
type Loan struct {
	Amount         float64 `json:"amount"`
	Rate           float64 `json:"rate"`
	Years          int     `json:"years"`
	TotalRepayment float64 `json:"total_repayment"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// NewLoan sizes and amortizes a loan.
// The principal is what the funds leave uncovered, capped by the price and by
// IncomeMultiple annual incomes.
func NewLoan(weeklyIncome, price, funds, rate float64, years int) (*Loan, error) {
	if years <= 0 {
		return nil, fmt.Errorf("%w: %d years", ErrInvalidTerm, years)
	}
	if rate < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}

	monthly := weeklyIncome * 4
	affordable := math.Min(price, monthly*12*IncomeMultiple)
	required := math.Max(0, price-funds)
	amount := math.Ceil(math.Min(required, affordable))
	if amount < 0 {
		amount = 0
	}

	l := &Loan{Amount: amount, Rate: rate, Years: years}
	months := float64(years * 12)
	r := rate / 12
	if r == 0 {
		l.TotalRepayment = amount
		l.MonthlyPayment = math.Ceil(amount / months)
	} else {
		f := math.Pow(1+r, months)
		l.TotalRepayment = math.Floor(amount * f)
		l.MonthlyPayment = math.Ceil(amount * r * f / (f - 1))
	}
	if l.MonthlyPayment < 0 || math.IsNaN(l.MonthlyPayment) {
		return nil, fmt.Errorf("%w: %v", ErrNegativePayment, l.MonthlyPayment)
	}
	return l, nil
}

// WeeklyPayment returns the repayment per simulated week.
func (l *Loan) WeeklyPayment() float64 {
	if l == nil {
		return 0
	}
	return l.MonthlyPayment / 4
}

// Clone returns an independent copy.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// SearchOutcome describes how a loan search ended.
type SearchOutcome string

// Search outcomes.
const (
	LoanFound        SearchOutcome = "found"
	NoIncomeHeadroom SearchOutcome = "no_income_headroom"
	LoanAverse       SearchOutcome = "loan_averse"
	NothingToFinance SearchOutcome = "nothing_to_finance"
	TermExceeded     SearchOutcome = "term_exceeded"
)

// LoanRequest describes a financing need.
type LoanRequest struct {
	Price              float64
	Funds              float64
	WeeklyIncome       float64
	WeeklyCostIncrease float64
	LifetimeWeeks      int
	Rate               float64
	LoanTaking         bool
	BypassAversion     bool
}

// Search is the result of FindLoan.
type Search struct {
	Loan    *Loan
	Term    int
	Outcome SearchOutcome
}

// ExpectedIncome returns the weekly income left after the cost change.
func (r LoanRequest) ExpectedIncome() float64 {
	return math.Max(0, r.WeeklyIncome-r.WeeklyCostIncrease)
}

// FindLoan looks for the shortest term, starting at InitialTerm years, whose
// weekly payment fits the expected weekly income. The principal cap follows
// the expected income too. The term grows one year at
// a time and the search fails once it exceeds the system lifetime.
func FindLoan(req LoanRequest) (Search, error) {
	expected := req.ExpectedIncome()
	if expected == 0 {
		return Search{Outcome: NoIncomeHeadroom}, nil
	}
	if !req.LoanTaking && !req.BypassAversion {
		return Search{Outcome: LoanAverse}, nil
	}

	term := InitialTerm
	loan, err := NewLoan(expected, req.Price, req.Funds, req.Rate, term)
	if err != nil {
		return Search{}, err
	}
	if loan.Amount == 0 {
		return Search{Term: term, Outcome: NothingToFinance}, nil
	}

	lifetimeYears := float64(req.LifetimeWeeks) / 52
	for loan.WeeklyPayment() > expected {
		term++
		if float64(term) > lifetimeYears {
			return Search{Term: term, Outcome: TermExceeded}, nil
		}
		loan, err = NewLoan(expected, req.Price, req.Funds, req.Rate, term)
		if err != nil {
			return Search{}, err
		}
	}
	return Search{Loan: loan, Term: term, Outcome: LoanFound}, nil
}
