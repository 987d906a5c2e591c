package cgd

type amountMode int

const (
	amountSingle amountMode = iota // one signed column
	amountSplit                    // separate debit and credit columns
)

// Profile is the column layout of one CGD export.
type Profile struct {
	Name       string
	DateCol    string
	DescCol    string
	AmountMode amountMode
	AmountCol  string // used when AmountMode == amountSingle
	DebitCol   string // used when AmountMode == amountSplit
	CreditCol  string // used when AmountMode == amountSplit
}

func (p Profile) matches(cols colIndex) bool {
	required := []string{p.DateCol, p.DescCol, p.AmountCol}
	if p.AmountMode == amountSplit {
		required = []string{p.DateCol, p.DescCol, p.DebitCol, p.CreditCol}
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// profiles are tried in order; more specific layouts come first.
var profiles = []Profile{
	{
		Name:       "cartão",
		DateCol:    "Data",
		DescCol:    "Descrição",
		AmountMode: amountSplit,
		DebitCol:   "Débito",
		CreditCol:  "Crédito",
	},
	{
		Name:       "extrato",
		DateCol:    "Data mov.",
		DescCol:    "Descrição",
		AmountMode: amountSingle,
		AmountCol:  "Movimento",
	},
	{
		Name:       "conta",
		DateCol:    "Data mov.",
		DescCol:    "Descrição",
		AmountMode: amountSingle,
		AmountCol:  "Montante",
	},
}
