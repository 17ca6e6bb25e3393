package usage

// Plan is a subscription tier. The tiers form a total order
// free < lite < pro used for feature gating.
type Plan string

const (
	PlanFree Plan = "free"
	PlanLite Plan = "lite"
	PlanPro  Plan = "pro"
)

// monthlyLimits maps each plan to its monthly generation allowance.
// Free users have no monthly pool; they go through the demo limiter instead.
// Blog and movie generations draw from the same pool.
var monthlyLimits = map[Plan]int{
	PlanFree: 0,
	PlanLite: 30,
	PlanPro:  100,
}

var planOrder = map[Plan]int{
	PlanFree: 0,
	PlanLite: 1,
	PlanPro:  2,
}

// ParsePlan normalizes a plan name, falling back to free for anything unknown
// so a malformed value can never grant a paid allowance.
func ParsePlan(s string) Plan {
	switch Plan(s) {
	case PlanLite:
		return PlanLite
	case PlanPro:
		return PlanPro
	default:
		return PlanFree
	}
}

// IsPaid reports whether the plan carries a monthly allowance.
func (p Plan) IsPaid() bool {
	return p == PlanLite || p == PlanPro
}

// MonthlyLimit returns the plan's monthly generation allowance.
func (p Plan) MonthlyLimit() int {
	return monthlyLimits[p]
}

// AtLeast reports whether the plan meets or exceeds the required tier.
func (p Plan) AtLeast(required Plan) bool {
	return planOrder[p] >= planOrder[required]
}
