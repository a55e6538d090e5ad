package scoring

import "math"

// Scores is the reconciled, display-rounded score triple.
type Scores struct {
	Plagiarism float64
	AI         float64
	Original   float64
}

// AIBudget is the share of the document still available to the AI score
// once plagiarism is accounted for.
func AIBudget(plagiarism float64) float64 {
	return math.Max(0, 100-clamp(plagiarism))
}

// Reconcile caps the AI score to the budget left by plagiarism and derives
// the original-content remainder. Plagiarism + AI never exceeds 100.
//
// Arithmetic happens in integer tenths so rounding cannot push the sum past
// 100.
func Reconcile(plagiarism, aiRaw float64) Scores {
	p := tenths(plagiarism)
	a := tenths(aiRaw)
	a = min(a, max(0, 1000-p))
	o := max(0, 1000-(p+a))

	return Scores{
		Plagiarism: float64(p) / 10,
		AI:         float64(a) / 10,
		Original:   float64(o) / 10,
	}
}

func tenths(x float64) int64 {
	return int64(math.Round(clamp(x) * 10))
}

func clamp(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 100 {
		return 100
	}
	return x
}
