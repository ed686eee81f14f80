package sim

import "github.com/aleehealey/alphagem/server/engine"

// ActionAudit summarizes how one action kind played out across the batch.
type ActionAudit struct {
	N         int     `json:"n"`
	AllPass   int     `json:"all_pass"`
	WinBid0   int     `json:"win_bid0"`
	SumWinBid int     `json:"sum_win_bid"`
	AvgWinBid float64 `json:"avg_win_bid"`
	MaxWinBid int     `json:"max_win_bid"`
}

// StrategyAudit breaks a strategy's play down into what it won and held at the end.
type StrategyAudit struct {
	Games         int `json:"games"`
	WinBid0       int `json:"win_bid0"`
	GemsWon       int `json:"gems_won"`
	LoansWon      int `json:"loans_won"`
	InvestsWon    int `json:"invests_won"`
	TrinketPoints int `json:"trinket_points"`

	AvgCash     float64 `json:"avg_cash"`
	AvgGemCount float64 `json:"avg_gem_count"`
	AvgLoans    float64 `json:"avg_loans"`
	AvgInvests  float64 `json:"avg_invests"`

	sumCash, sumGems, sumLoans, sumInvests int
}

// auditGame tallies one finished game. seating maps player id to entry name.
func auditGame(out engine.Outcome, seating []string, actions map[engine.ActionKind]*ActionAudit, strategies map[string]*StrategyAudit) {
	for _, p := range out.FinalPublic.Players {
		st := strategyAudit(strategies, seating[p.PlayerID])
		st.Games++
		st.TrinketPoints += p.TrinketPoints
		st.sumCash += p.Cash
		st.sumGems += len(p.GemsOwned)
		st.sumLoans += len(p.Loans)
		st.sumInvests += len(p.Investments)
	}

	for _, r := range out.History {
		a := actions[r.Action.Kind]
		if a == nil {
			a = &ActionAudit{}
			actions[r.Action.Kind] = a
		}
		a.N++
		a.SumWinBid += r.WinningBid
		if r.WinningBid > a.MaxWinBid {
			a.MaxWinBid = r.WinningBid
		}
		if allZero(r.Bids) {
			a.AllPass++
		}
		if !r.HasWinner() {
			continue
		}

		st := strategyAudit(strategies, seating[r.WinnerID])
		if r.WinningBid == 0 {
			a.WinBid0++
			st.WinBid0++
		}
		switch kind := r.Action.Kind; {
		case kind.IsAuction():
			st.GemsWon += len(r.AuctionedGems)
		case kind.IsLoan():
			st.LoansWon++
		case kind.IsInvestment():
			st.InvestsWon++
		}
	}
}

func strategyAudit(m map[string]*StrategyAudit, name string) *StrategyAudit {
	st := m[name]
	if st == nil {
		st = &StrategyAudit{}
		m[name] = st
	}
	return st
}

func finalizeAudit(actions map[engine.ActionKind]*ActionAudit, strategies map[string]*StrategyAudit) {
	for _, a := range actions {
		if a.N > 0 {
			a.AvgWinBid = float64(a.SumWinBid) / float64(a.N)
		}
	}
	for _, st := range strategies {
		if st.Games == 0 {
			continue
		}
		g := float64(st.Games)
		st.AvgCash = float64(st.sumCash) / g
		st.AvgGemCount = float64(st.sumGems) / g
		st.AvgLoans = float64(st.sumLoans) / g
		st.AvgInvests = float64(st.sumInvests) / g
	}
}

func allZero(bids []int) bool {
	for _, b := range bids {
		if b != 0 {
			return false
		}
	}
	return true
}
