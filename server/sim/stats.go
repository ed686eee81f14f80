package sim

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// Summary is the derived, report-ready view of one strategy.
type Summary struct {
	Name        string     `json:"name"`
	Games       int        `json:"games"`
	Wins        int        `json:"wins"`
	WinRate     float64    `json:"win_rate"`
	Top2Rate    float64    `json:"top2_rate"`
	AvgRank     float64    `json:"avg_rank"`
	AvgScore    float64    `json:"avg_score"`
	MedianScore float64    `json:"median_score"`
	StdDevScore float64    `json:"stddev_score"`
	MinScore    int        `json:"min_score"`
	MaxScore    int        `json:"max_score"`
	WinCI       [2]float64 `json:"win_ci"`
	ScoreCI     [2]float64 `json:"score_ci"`
}

// BootstrapRounds is the resample count for score confidence intervals.
const BootstrapRounds = 1000

// Report derives a Summary for every entry that played, best first: by win rate,
// then average score. Bootstrap resampling is seeded from the batch seed.
func Report(r *Result) []Summary {
	rng := rand.New(rand.NewSource(uint64(r.Seed) ^ 0x5eed))
	var rows []Summary
	for _, name := range r.Names {
		st := r.PerStrategy[name]
		if st == nil || st.Games == 0 {
			continue
		}
		rows = append(rows, summarize(name, st, rng))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].WinRate != rows[j].WinRate {
			return rows[i].WinRate > rows[j].WinRate
		}
		return rows[i].AvgScore > rows[j].AvgScore
	})
	return rows
}

func summarize(name string, st *StrategyStats, rng *rand.Rand) Summary {
	n := float64(st.Games)
	s := Summary{
		Name:     name,
		Games:    st.Games,
		Wins:     st.Wins,
		WinRate:  float64(st.Wins) / n,
		Top2Rate: float64(st.Top2) / n,
		AvgScore: float64(st.TotalScore) / n,
		MinScore: st.Scores[0],
		MaxScore: st.Scores[0],
	}
	rankSum := 0
	for _, r := range st.Ranks {
		rankSum += r
	}
	s.AvgRank = float64(rankSum) / n

	vals := make([]float64, len(st.Scores))
	for i, v := range st.Scores {
		vals[i] = float64(v)
		if v < s.MinScore {
			s.MinScore = v
		}
		if v > s.MaxScore {
			s.MaxScore = v
		}
	}
	s.MedianScore = Median(vals)
	s.StdDevScore = PStdDev(vals)
	s.WinCI[0], s.WinCI[1] = WilsonCI95(st.Wins, 0, st.Games)
	s.ScoreCI[0], s.ScoreCI[1] = BootstrapCI95(vals, BootstrapRounds, rng)
	return s
}

// --------- CI helpers ---------

// WilsonCI95 for a Bernoulli rate; a tie counts as half a win.
func WilsonCI95(wins, ties, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := (float64(wins) + 0.5*float64(ties)) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}

// BootstrapCI95 for the mean of vals, resampled B times from rng.
func BootstrapCI95(vals []float64, B int, rng *rand.Rand) (low, hi float64) {
	n := len(vals)
	if n == 0 || B <= 1 {
		return 0, 0
	}
	res := make([]float64, B)
	for b := 0; b < B; b++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += vals[rng.Intn(n)]
		}
		res[b] = sum / float64(n)
	}
	sort.Float64s(res)
	l := int(0.025 * float64(B-1))
	h := int(0.975 * float64(B-1))
	return res[l], res[h]
}

func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}
	return (s[m-1] + s[m]) / 2
}

// PStdDev is the population standard deviation.
func PStdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	ss := 0.0
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(vals)))
}

// MostCommonWinner returns the entry that won most games; ties go to the first
// to reach the count.
func MostCommonWinner(logs []GameLog) (string, int) {
	counts := map[string]int{}
	best, bestN := "", 0
	for _, g := range logs {
		counts[g.Winner]++
		if counts[g.Winner] > bestN {
			best, bestN = g.Winner, counts[g.Winner]
		}
	}
	return best, bestN
}
