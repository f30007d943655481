package decision

// ApplicationRecord is the union of voice-collected slots and form-collected
// fields for one submission. It lives only for the duration of the request.
type ApplicationRecord struct {
	ApplicationID string

	LegalName string
	Email     string
	Phone     string
	ZipCode   string
	DOB       string
	SSNLast4  string

	MonthlyIncome     float64
	RequestedAmount   float64
	LoanDurationYears int
	Purpose           string
	TermsConsent      bool

	CreditScore             int
	EstimatedMonthlyPayment float64
	DebtToIncomeRatio       float64
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Result is the mapped rules-engine decision. Immutable once produced.
type Result struct {
	Approved          bool      `json:"approved"`
	ProvisionalAmount float64   `json:"provisional_amount"`
	RateMin           float64   `json:"rate_min"`
	RateMax           float64   `json:"rate_max"`
	RiskLevel         RiskLevel `json:"risk_level"`
	RequiresReview    bool      `json:"requires_review"`
	Reason            string    `json:"reason"`
}

type OutcomeKind string

const (
	AutoApprove OutcomeKind = "auto_approve"
	AutoDeny    OutcomeKind = "auto_deny"
	Escalated   OutcomeKind = "escalate"
)

// Outcome is the terminal disposition of an application.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
}
