package feedback

import "fmt"

// Band is the total-score range permitted for a range of adequate answers.
// MaxAdequate < 0 means unbounded.
type Band struct {
	MinAdequate int
	MaxAdequate int
	MinScore    float64
	MaxScore    float64
}

// ScoreBands is rendered into the prompt and enforced on the model output.
var ScoreBands = []Band{
	{MinAdequate: 0, MaxAdequate: 1, MinScore: 0, MaxScore: 25},
	{MinAdequate: 2, MaxAdequate: 3, MinScore: 25, MaxScore: 50},
	{MinAdequate: 4, MaxAdequate: -1, MinScore: 50, MaxScore: 100},
}

// BandFor returns the band covering the given number of adequate answers.
func BandFor(adequate int) Band {
	for _, b := range ScoreBands {
		if adequate >= b.MinAdequate && (b.MaxAdequate < 0 || adequate <= b.MaxAdequate) {
			return b
		}
	}
	return ScoreBands[0]
}

func (b Band) Contains(score float64) bool {
	return score >= b.MinScore && score <= b.MaxScore
}

func (b Band) responses() string {
	switch {
	case b.MaxAdequate < 0:
		return fmt.Sprintf("%d+", b.MinAdequate)
	case b.MinAdequate == b.MaxAdequate:
		return fmt.Sprintf("%d", b.MinAdequate)
	default:
		return fmt.Sprintf("%d-%d", b.MinAdequate, b.MaxAdequate)
	}
}

// CheckScoreBand flags a total score that contradicts the adequate count.
// It never adjusts the score.
func CheckScoreBand(total float64, adequate int) error {
	b := BandFor(adequate)
	if b.Contains(total) {
		return nil
	}
	return fmt.Errorf("%w: total %g with %d adequate responses, want %g-%g",
		ErrScoreOutOfBand, total, adequate, b.MinScore, b.MaxScore)
}
