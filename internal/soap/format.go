// SPDX-License-Identifier: MIT

package soap

import "fmt"

// FormatDuration renders seconds as HH:MM:SS with zero-padded two-digit
// fields. Negative or unknown values (spec section 4.2: "either value may
// be -1 if unknown") render as 00:00:00, per spec section 4.4.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		return "00:00:00"
	}
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseDuration parses an HH:MM:SS string back into seconds, used to
// decode AVTransport.Seek's Target argument (REL_TIME unit).
func ParseDuration(s string) (float64, bool) {
	var h, m, sec int
	n, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec)
	if err != nil || n != 3 || m < 0 || m > 59 || sec < 0 || sec > 59 || h < 0 {
		return 0, false
	}
	return float64(h*3600+m*60+sec), true
}
