package engine

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

// Outcome is a decided round result: the winning colour, the display
// number, and the multiplier winning bets are paid at.
type Outcome struct {
	Color      models.Color
	Number     int
	Multiplier decimal.Decimal
	Forced     bool
}

// Resolver decides round outcomes. The random source is injected so tests
// can seed it; randomness is only drawn for ties and zero-stake rounds
// (and for the display number).
type Resolver struct {
	rng      *rand.Rand
	winMult  decimal.Decimal
	dojiMult decimal.Decimal
}

func NewResolver(rng *rand.Rand, winMult, dojiMult decimal.Decimal) *Resolver {
	return &Resolver{rng: rng, winMult: winMult, dojiMult: dojiMult}
}

// Decide applies the house-edge rule to the per-side stake totals:
// the heavier side loses. Equal non-zero stakes resolve as a doji with
// the reduced multiplier; an empty round is a coin flip.
func (r *Resolver) Decide(upTotal, downTotal decimal.Decimal) Outcome {
	out := Outcome{
		Number:     r.rng.Intn(9) + 1,
		Multiplier: r.winMult,
	}

	switch {
	case upTotal.IsZero() && downTotal.IsZero():
		if r.rng.Intn(2) == 0 {
			out.Color = models.ColorGreen
		} else {
			out.Color = models.ColorRed
		}
	case upTotal.GreaterThan(downTotal):
		out.Color = models.ColorRed
	case downTotal.GreaterThan(upTotal):
		out.Color = models.ColorGreen
	default:
		out.Multiplier = r.dojiMult
		if r.rng.Intn(2) == 0 {
			out.Color = models.ColorGreenDoji
		} else {
			out.Color = models.ColorRedDoji
		}
	}
	return out
}

// Forced builds the outcome for an admin override. The display number is
// fixed per side so the admin screen can tell forced results apart.
func (r *Resolver) Forced(side models.Side) Outcome {
	out := Outcome{
		Color:      side.ToColor(),
		Number:     1,
		Multiplier: r.winMult,
		Forced:     true,
	}
	if side == models.SideDown {
		out.Number = 2
	}
	return out
}
