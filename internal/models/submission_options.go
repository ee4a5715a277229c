package models

// Option lists offered by the intake wizard. Stored values must match exactly.
var (
	RoleOptions = []string{
		"Real Estate Investor",
		"Borrower",
		"Broker or Representative",
	}

	FICOOptions = []string{
		"Below 600",
		"600-619",
		"620-639",
		"640-659",
		"660-679",
		"680-699",
		"700-719",
		"720-739",
		"740-749",
		"750-759",
		"760-769",
		"770-779",
		"780 or Above",
		"Foreign National",
	}

	PropertyTypeOptions = []string{
		"Single Family",
		"Condo",
		"Townhouse",
		"2-4 Unit",
		"Multi-Family (5+ Units)",
		"Land",
		"Commercial",
	}

	IntentOptions = []string{"Purchase", "Refinance"}

	Refi6MonthsOptions = []string{
		"Yes - Purchased Within 6 Months",
		"No - Owned Longer Than 6 Months",
	}

	LoanTypeOptions = []string{
		"Bridge",
		"Rental",
		"Fix and Flip",
		"Ground-Up Construction",
	}

	ExperienceOptions = []string{
		"None",
		"1 Property",
		"2 Properties",
		"3 Properties",
		"4-5 Properties",
		"6-9 Properties",
		"10-19 Properties",
		"20+ Properties",
	}

	PreferredClosingOptions = []string{
		"7 - 13 Days",
		"More Than 14 Days",
		"No preference",
	}
)

// Loan types and intents compared case-insensitively by the conditional rules.
const (
	LoanTypeBridge     = "bridge"
	LoanTypeRental     = "rental"
	LoanTypeFixAndFlip = "fix and flip"
	LoanTypeGroundUp   = "ground-up construction"
	IntentRefinance    = "refinance"
)
