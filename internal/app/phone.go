package app

import "github.com/nyaruka/phonenumbers"

// ValidatePhoneNumber reports whether phone parses as a valid number.
// No default region is assumed, so the number must carry its country code
// ("+14155552671"). Parse failures are simply "not valid".
func ValidatePhoneNumber(phone string) bool {
	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}
