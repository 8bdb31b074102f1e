package analytics

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/settlement"
)

// Allocation is the capital initially deposited at one sportsbook.
type Allocation struct {
	Book  string          `json:"book"`
	Start decimal.Decimal `json:"start"`
}

// Capital is the starting-capital table, one allocation per sportsbook.
type Capital []Allocation

// DefaultCapital returns the built-in allocation table (8500 in total).
func DefaultCapital() Capital {
	return Capital{
		{Book: "SHARP", Start: decimal.NewFromInt(1500)},
		{Book: "PINNACLE", Start: decimal.NewFromInt(2000)},
		{Book: "BET365", Start: decimal.NewFromInt(2000)},
		{Book: "WINAMAX", Start: decimal.NewFromInt(1000)},
		{Book: "WWIN", Start: decimal.NewFromInt(500)},
		{Book: "E-STAVE", Start: decimal.NewFromInt(500)},
		{Book: "BET AT HOME", Start: decimal.NewFromInt(1000)},
	}
}

// Total is the starting capital across all books.
func (c Capital) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range c {
		total = total.Add(a.Start)
	}
	return total
}

// For looks up the allocation of a sportsbook by normalized name.
func (c Capital) For(book string) (decimal.Decimal, bool) {
	key := NormalizeBook(book)
	for _, a := range c {
		if NormalizeBook(a.Book) == key {
			return a.Start, true
		}
	}
	return decimal.Zero, false
}

// NormalizeBook canonicalizes a sportsbook name: upper case with whitespace
// and hyphens removed, so "Bet at Home" and "BET-AT-HOME" compare equal.
func NormalizeBook(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return unicode.ToUpper(r)
	}, name)
}

// Balance is the current standing of one sportsbook account.
type Balance struct {
	Book    string          `json:"book"`
	Start   decimal.Decimal `json:"start"`
	Profit  decimal.Decimal `json:"profit"`
	Balance decimal.Decimal `json:"balance"`
}

// BookBalances adds settled profit to each allocation and returns the
// accounts sorted by balance, highest first. Profit booked at sportsbooks
// missing from the table is not shown.
func BookBalances(bets []model.Bet, capital Capital) []Balance {
	profitByBook := make(map[string]decimal.Decimal)
	for _, b := range bets {
		if !b.Outcome.Settled() {
			continue
		}
		key := NormalizeBook(b.Sportsbook)
		profitByBook[key] = profitByBook[key].Add(settlement.Profit(b))
	}

	balances := make([]Balance, 0, len(capital))
	for _, a := range capital {
		p := profitByBook[NormalizeBook(a.Book)]
		balances = append(balances, Balance{
			Book:    a.Book,
			Start:   a.Start,
			Profit:  p,
			Balance: a.Start.Add(p),
		})
	}

	sort.SliceStable(balances, func(i, j int) bool {
		return balances[i].Balance.GreaterThan(balances[j].Balance)
	})
	return balances
}

// OpenRiskByBook sums the risk of OPEN bets per normalized sportsbook.
func OpenRiskByBook(bets []model.Bet) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, b := range bets {
		if b.Outcome != model.OutcomeOpen {
			continue
		}
		key := NormalizeBook(b.Sportsbook)
		out[key] = out[key].Add(settlement.Risk(b))
	}
	return out
}
