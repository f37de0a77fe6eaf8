package domain

// MonthlyStat is one entry of the per-period breakdown.
type MonthlyStat struct {
	Period string  `json:"period"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

// Stats is a derived snapshot over the registry and the ledger.
type Stats struct {
	MemberCount        int64         `json:"memberCount"`
	ContributionsTotal float64       `json:"contributionsTotal"`
	MonthlyStats       []MonthlyStat `json:"monthlyStats"`
}
