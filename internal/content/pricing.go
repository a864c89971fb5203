package content

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is one plan offered on a paywall.
type Tier struct {
	Title       string
	Price       decimal.Decimal
	Period      string // "month" or "year"
	Features    []string
	CTAText     string
	Highlighted bool
	PlanID      string
}

// DisplayPrice renders the price as "$29".
func (t Tier) DisplayPrice() string {
	return "$" + t.Price.StringFixedBank(0)
}

var yearlyFactor = decimal.NewFromInt(12).Mul(decimal.RequireFromString("0.8"))

// MonthlyTiers is the default plan line-up.
func MonthlyTiers() []Tier {
	return []Tier{
		{
			Title:  "Basic",
			Price:  decimal.NewFromInt(9),
			Period: "month",
			Features: []string{
				"Full access to basic content",
				"Up to 3 projects",
				"Basic support",
				"Updates included",
			},
			CTAText: "Start Basic",
			PlanID:  "price_basic_monthly",
		},
		{
			Title:  "Pro",
			Price:  decimal.NewFromInt(29),
			Period: "month",
			Features: []string{
				"Full access to all content",
				"Unlimited projects",
				"Priority support",
				"Updates included",
				"Advanced analytics",
				"Custom exports",
			},
			CTAText:     "Start Pro",
			Highlighted: true,
			PlanID:      "price_pro_monthly",
		},
		{
			Title:  "Team",
			Price:  decimal.NewFromInt(79),
			Period: "month",
			Features: []string{
				"Everything in Pro",
				"Up to 10 team members",
				"Dedicated support",
				"Team collaboration tools",
				"Admin console",
				"SSO integration",
			},
			CTAText: "Start Team",
			PlanID:  "price_team_monthly",
		},
	}
}

// YearlyTiers derives annual plans: twelve months at a 20% discount,
// rounded to whole dollars.
func YearlyTiers(monthly []Tier) []Tier {
	yearly := make([]Tier, len(monthly))
	for i, t := range monthly {
		t.Price = t.Price.Mul(yearlyFactor).Round(0)
		t.Period = "year"
		t.PlanID = strings.Replace(t.PlanID, "monthly", "yearly", 1)
		t.Features = append([]string(nil), t.Features...)
		yearly[i] = t
	}
	return yearly
}
