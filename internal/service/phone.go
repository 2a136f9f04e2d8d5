package service

import (
	"regexp"
	"strings"
)

var (
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
	mobilePattern   = regexp.MustCompile(`^5\d{9}$`)
)

// NormalizePhone reduces a national mobile number to its ten-digit form:
// separators, a leading "+", the country code and the trunk "0" are removed.
// The boolean is false when the result is not a valid mobile number.
func NormalizePhone(raw, countryCode string) (string, bool) {
	phone := phoneSeparators.Replace(strings.TrimSpace(raw))
	international := strings.HasPrefix(phone, "+") || strings.HasPrefix(phone, "00")
	phone = strings.TrimPrefix(phone, "+")
	phone = strings.TrimPrefix(phone, "00")
	if countryCode != "" && (international || len(phone) == len(countryCode)+10) {
		phone = strings.TrimPrefix(phone, countryCode)
	}
	phone = strings.TrimPrefix(phone, "0")
	if !mobilePattern.MatchString(phone) {
		return "", false
	}
	return phone, true
}
