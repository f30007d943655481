package decision

// Decide maps a rules engine result onto a final outcome. It is a pure
// function of its inputs so the same application always lands the same way.
//
// Rules apply in order:
//  1. anything the engine flagged for review escalates
//  2. approvals at low or medium risk auto-approve
//  3. denials at low risk auto-deny
//  4. everything else goes to a human with a named reason
func Decide(res Result, rec ApplicationRecord) Outcome {
	if res.RequiresReview {
		return escalate("rules-engine-flagged")
	}
	if res.Approved {
		switch res.RiskLevel {
		case RiskLow, RiskMedium:
			return Outcome{Kind: AutoApprove, Reason: res.Reason}
		default:
			return escalate("high-risk-approval")
		}
	}
	switch res.RiskLevel {
	case RiskLow:
		return Outcome{Kind: AutoDeny, Reason: res.Reason}
	case RiskMedium:
		return escalate("borderline-denial")
	case RiskHigh:
		if rec.MonthlyIncome > 0 && rec.RequestedAmount > rec.MonthlyIncome*36 {
			return escalate("high-loan-to-income")
		}
		return escalate("high-risk-denial")
	default:
		return escalate("indeterminate")
	}
}

func escalate(reason string) Outcome {
	metricEscalations.WithLabelValues(reason).Inc()
	return Outcome{Kind: Escalated, Reason: reason}
}
