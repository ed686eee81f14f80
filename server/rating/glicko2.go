package rating

import "math"

// Glicko-2 (Glickman 2012). Every game is one rating period in which each player
// meets every other player once, scored 1 / 0.5 / 0 by final score.

const (
	glickoScale = 173.7178
	defaultTau  = 0.5
	convergence = 1e-6
)

type Glicko2 struct {
	Rating     float64 `json:"rating"`
	RD         float64 `json:"rd"`
	Volatility float64 `json:"volatility"`
	Games      int     `json:"games"`
}

func NewGlicko2() Glicko2 { return Glicko2{Rating: 1500, RD: 350, Volatility: 0.06} }

func (p Glicko2) mu() float64  { return (p.Rating - 1500) / glickoScale }
func (p Glicko2) phi() float64 { return p.RD / glickoScale }

func gPhi(phi float64) float64 { return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi)) }

func expectMu(mu, muj, phij float64) float64 {
	return 1 / (1 + math.Exp(-gPhi(phij)*(mu-muj)))
}

type duel struct {
	opp   Glicko2
	score float64
}

// update runs one rating period for p against the opponents' start-of-period values.
func (p Glicko2) update(duels []duel, tau float64) Glicko2 {
	mu, phi, sigma := p.mu(), p.phi(), p.Volatility
	if len(duels) == 0 {
		p.RD = math.Sqrt(phi*phi+sigma*sigma) * glickoScale
		return p
	}

	var vInv, sum float64
	for _, d := range duels {
		gj := gPhi(d.opp.phi())
		ej := expectMu(mu, d.opp.mu(), d.opp.phi())
		vInv += gj * gj * ej * (1 - ej)
		sum += gj * (d.score - ej)
	}
	v := 1 / vInv
	delta := v * sum

	sigma = newVolatility(delta, phi, v, sigma, tau)
	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	phiNew := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	muNew := mu + phiNew*phiNew*sum

	return Glicko2{
		Rating:     muNew*glickoScale + 1500,
		RD:         phiNew * glickoScale,
		Volatility: sigma,
		Games:      p.Games + 1,
	}
}

// newVolatility solves f(x) = 0 with the Illinois variant of regula falsi.
func newVolatility(delta, phi, v, sigma, tau float64) float64 {
	a := math.Log(sigma * sigma)
	f := func(x float64) float64 {
		ex := math.Exp(x)
		d := phi*phi + v + ex
		return ex*(delta*delta-phi*phi-v-ex)/(2*d*d) - (x-a)/(tau*tau)
	}

	A := a
	var B float64
	if delta*delta > phi*phi+v {
		B = math.Log(delta*delta - phi*phi - v)
	} else {
		k := 1.0
		for f(a-k*tau) < 0 {
			k++
		}
		B = a - k*tau
	}
	fA, fB := f(A), f(B)
	for i := 0; i < 100 && math.Abs(B-A) > convergence; i++ {
		C := A + (A-B)*fA/(fB-fA)
		fC := f(C)
		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}
	return math.Exp(A / 2)
}

// duelScore: 1 for the higher final score, 0.5 for a tie.
func duelScore(a, b int) float64 {
	switch {
	case a > b:
		return 1
	case a == b:
		return 0.5
	}
	return 0
}
