package classification

// SuspiciousKeywords are the words that feed the fraud rule score.
var SuspiciousKeywords = []string{
	"suspicious", "unknown", "unauthorized", "fake", "fraud", "scam", "phishing",
}

// DefaultRules returns the built-in keyword rules. Keywords are in normalized form,
// so brand names that the normalizer aliases appear as their expansions.
func DefaultRules() []Rule {
	return []Rule{
		// Suspicious first
		{
			Category: CategorySuspicious,
			Keywords: SuspiciousKeywords,
		},
		{
			Category: "Dining",
			Keywords: []string{"coffee", "cafe", "restaurant", "food", "pizza", "burger", "kfc", "dominos", "zomato", "swiggy"},
		},
		{
			Category: "Shopping",
			Keywords: []string{"shopping", "store", "mall", "myntra", "nykaa", "buy"},
		},
		{
			Category: "Transportation",
			Keywords: []string{"petrol", "fuel", "ride sharing", "taxi", "bus", "metro", "hp", "shell"},
		},
		{
			Category: "Groceries",
			Keywords: []string{"grocery", "bazaar", "supermarket", "dmart", "reliance", "fresh", "vegetables"},
		},
		{
			Category: "Entertainment",
			Keywords: []string{"streaming", "prime", "spotify", "movie", "cinema", "subscription"},
		},
		{
			Category: "Utilities",
			Keywords: []string{"electricity", "water", "gas", "bill", "bescom", "bwssb", "airtel", "jio"},
		},
		{
			Category: "Housing",
			Keywords: []string{"rent", "emi", "loan", "mortgage", "hdfc", "sbi", "icici", "housing"},
		},
		{
			Category: "Health",
			Keywords: []string{"hospital", "doctor", "pharmacy", "medical", "apollo", "fortis", "medicine"},
		},
		{
			Category: "Education",
			Keywords: []string{"school", "college", "university", "course", "book", "education", "fee"},
		},
		{
			Category: "Payments",
			Keywords: []string{"digital payment", "upi", "neft", "imps", "wallet"},
		},
		{
			Category: "Income",
			Keywords: []string{"salary", "payroll", "refund", "cashback", "interest", "dividend"},
		},
	}
}
