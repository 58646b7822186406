package model

import "strconv"

// ftoa formats a float64 the way %v would for a plain decimal, without
// exponent notation, trimming trailing zeros.
func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
