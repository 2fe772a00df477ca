package payment

// CorrespondentBank is an intermediary bank available for routing
type CorrespondentBank struct {
	ID        string
	Name      string
	Country   string
	SWIFTCode string
}

// DefaultCorrespondents returns the built-in correspondent roster
func DefaultCorrespondents() []CorrespondentBank {
	return []CorrespondentBank{
		{ID: "swift_1", Name: "Deutsche Bank", Country: "Germany", SWIFTCode: "DEUTDEFF"},
		{ID: "swift_2", Name: "JP Morgan Chase", Country: "USA", SWIFTCode: "CHASUS33"},
		{ID: "swift_3", Name: "HSBC", Country: "UK", SWIFTCode: "HSBCGB2L"},
		{ID: "swift_4", Name: "Bank of America", Country: "USA", SWIFTCode: "BOFAUS3N"},
	}
}
