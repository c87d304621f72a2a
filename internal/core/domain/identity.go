package domain

import "strings"

// ValidThaiCitizenID checks the 13-digit Thai national ID checksum:
// check = (11 - (sum d_i*(13-i) for i in 0..11) mod 11) mod 10 == d12.
// Non-digit characters are ignored; any other length fails.
func ValidThaiCitizenID(nid string) bool {
	digits := keepDigits(nid)
	if len(digits) != 13 {
		return false
	}
	sum := 0
	for i := 0; i < 12; i++ {
		sum += int(digits[i]-'0') * (13 - i)
	}
	check := (11 - sum%11) % 10
	return check == int(digits[12]-'0')
}

// MaskThaiCitizenID masks the middle block of a 13-digit ID for user-facing
// messages, e.g. "1 1017 **** 08 51". Anything that is not 13 digits is
// returned unchanged.
func MaskThaiCitizenID(nid string) string {
	digits := keepDigits(nid)
	if len(digits) != 13 {
		return nid
	}
	return digits[0:1] + " " + digits[1:5] + " **** " + digits[9:11] + " " + digits[11:13]
}

func keepDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
