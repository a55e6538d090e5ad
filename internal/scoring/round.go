package scoring

import "math"

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Round4 rounds to four decimal places, used for span confidences.
func Round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
