package main

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/aleehealey/alphagem/server/engine"
	"github.com/aleehealey/alphagem/server/sim"
	"github.com/aleehealey/alphagem/server/store"
)

func printReport(run store.Run) {
	res := run.Result
	pterm.DefaultHeader.WithFullWidth().Printfln("PocketRockets  %d games  seed %d  %d-player tables",
		len(res.GameLogs), res.Seed, res.PlayersPerGame)

	pterm.DefaultSection.Println("Strategies")
	_ = pterm.DefaultTable.WithHasHeader().WithData(strategyTable(run.Summaries)).Render()

	pterm.DefaultSection.Println("Actions")
	_ = pterm.DefaultTable.WithHasHeader().WithData(actionTable(res.Actions)).Render()

	pterm.DefaultSection.Println("Behaviour")
	_ = pterm.DefaultTable.WithHasHeader().WithData(behaviourTable(run.Summaries, res)).Render()

	pterm.DefaultSection.Println("Ratings")
	rows := pterm.TableData{{"Strategy", "Games", "Elo", "Glicko", "RD", "Sigma", "Conservative"}}
	for _, r := range run.Ratings {
		rows = append(rows, []string{r.Name, fmt.Sprint(r.Games),
			fmt.Sprintf("%.0f", r.Elo), fmt.Sprintf("%.0f", r.Glicko), fmt.Sprintf("%.0f", r.RD),
			fmt.Sprintf("%.4f", r.Sigma), fmt.Sprintf("%.0f", r.Conserv)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	if name, wins := sim.MostCommonWinner(res.GameLogs); name != "" {
		pterm.Success.Printfln("Most wins: %s (%d)", pterm.LightCyan(name), wins)
	}
	if n := faultTotal(res); n > 0 {
		pterm.Warning.Printfln("%d strategy faults fell back to safe defaults", n)
	}
}

func strategyTable(rows []sim.Summary) pterm.TableData {
	data := pterm.TableData{{"Strategy", "Games", "Win%", "95% CI", "Top2%", "AvgRank", "AvgScore", "Median", "StdDev", "Min", "Max"}}
	for _, s := range rows {
		data = append(data, []string{
			s.Name,
			fmt.Sprint(s.Games),
			fmt.Sprintf("%.1f", 100*s.WinRate),
			fmt.Sprintf("%.1f-%.1f", 100*s.WinCI[0], 100*s.WinCI[1]),
			fmt.Sprintf("%.1f", 100*s.Top2Rate),
			fmt.Sprintf("%.2f", s.AvgRank),
			fmt.Sprintf("%.1f", s.AvgScore),
			fmt.Sprintf("%.1f", s.MedianScore),
			fmt.Sprintf("%.1f", s.StdDevScore),
			fmt.Sprint(s.MinScore),
			fmt.Sprint(s.MaxScore),
		})
	}
	return data
}

func actionTable(actions map[engine.ActionKind]*sim.ActionAudit) pterm.TableData {
	data := pterm.TableData{{"Action", "N", "AllPass", "Won@0", "AvgWinBid", "MaxWinBid"}}
	for _, k := range engine.ActionKinds {
		a := actions[k]
		if a == nil {
			continue
		}
		data = append(data, []string{string(k), fmt.Sprint(a.N), fmt.Sprint(a.AllPass), fmt.Sprint(a.WinBid0),
			fmt.Sprintf("%.2f", a.AvgWinBid), fmt.Sprint(a.MaxWinBid)})
	}
	return data
}

func behaviourTable(rows []sim.Summary, res *sim.Result) pterm.TableData {
	data := pterm.TableData{{"Strategy", "Gems", "Loans", "Invests", "Won@0", "Trinket pts", "AvgCash", "AvgGems", "Faults"}}
	for _, s := range rows {
		a := res.Strategies[s.Name]
		if a == nil {
			continue
		}
		f := res.Faults[s.Name]
		data = append(data, []string{s.Name, fmt.Sprint(a.GemsWon), fmt.Sprint(a.LoansWon), fmt.Sprint(a.InvestsWon),
			fmt.Sprint(a.WinBid0), fmt.Sprint(a.TrinketPoints),
			fmt.Sprintf("%.1f", a.AvgCash), fmt.Sprintf("%.2f", a.AvgGemCount), fmt.Sprint(f.Total())})
	}
	return data
}

func faultTotal(res *sim.Result) int {
	total := 0
	for _, f := range res.Faults {
		total += f.Total()
	}
	return total
}
