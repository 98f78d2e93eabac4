package utils

import "fmt"

// MaskSecret hides all but the last four characters of a secret so it can be
// referenced in logs without leaking it
func MaskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// FormatPence renders a pence amount as a display string, e.g. 95000 -> £950.00
func FormatPence(pence int64) string {
	sign := ""
	if pence < 0 {
		sign = "-"
		pence = -pence
	}
	return fmt.Sprintf("%s£%d.%02d", sign, pence/100, pence%100)
}
