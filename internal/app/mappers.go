package app

import (
	"strconv"
	"strings"
	"time"

	"pms_bridge/internal/domain"
)

/********** alias registries (single source of truth) **********/

var reservationAliases = map[string][]string{
	"reservation_id": {"ReservationId", "reservation_id", "Id", "id"},
	"guest_id":       {"GuestId", "guest_id", "CustomerId", "customer_id"},
	"checkin":        {"CheckInDate", "check_in_date", "checkin", "StartUtc", "start_utc"},
	"checkout":       {"CheckOutDate", "check_out_date", "checkout", "EndUtc", "end_utc"},
	"status":         {"Status", "status", "State", "state"},
}

var guestAliases = map[string][]string{
	"phone":    {"Phone", "phone", "PhoneNumber", "phone_number", "Telephone"},
	"name":     {"Name", "name", "FullName", "full_name"},
	"language": {"Language", "language", "LanguageCode", "language_code", "Locale", "locale"},
	"country":  {"Country", "country", "CountryCode", "country_code", "NationalityCode"},
}

// countryToLang covers the markets we actually see; country codes are not
// language codes, so anything unmapped stays unset.
var countryToLang = map[string]string{
	"us": "en", "gb": "en", "ie": "en", "au": "en",
	"nl": "nl", "be": "nl",
	"de": "de", "at": "de", "ch": "de",
	"fr": "fr", "es": "es", "it": "it", "pt": "pt",
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string at path, coercing JSON numbers. Ids in PMS
// payloads show up both ways.
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// firstAlias: first non-empty string among the alias paths for key.
func firstAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// boolFlexible reads a bool at any of the paths, tolerating "true"/"false"
// strings. ok is false when no path holds something bool-shaped.
func boolFlexible(m map[string]any, paths ...string) (val, ok bool) {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case bool:
			return v, true
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b, true
			}
		}
	}
	return false, false
}

// normalizeDate reduces a date or timestamp string to YYYY-MM-DD.
// Unparseable input is passed through untouched.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

/********** reservation mapper **********/

// reservationRecord is a normalized PMS reservation payload.
type reservationRecord struct {
	ReservationID string
	GuestID       string
	CheckIn       string
	CheckOut      string
	Status        string
}

func mapReservation(m map[string]any) reservationRecord {
	return reservationRecord{
		ReservationID: firstAlias(m, reservationAliases, "reservation_id"),
		GuestID:       firstAlias(m, reservationAliases, "guest_id"),
		CheckIn:       normalizeDate(firstAlias(m, reservationAliases, "checkin")),
		CheckOut:      normalizeDate(firstAlias(m, reservationAliases, "checkout")),
		Status:        firstAlias(m, reservationAliases, "status"),
	}
}

/********** guest mapper **********/

func mapGuest(m map[string]any) domain.Guest {
	return domain.Guest{
		Phone:    firstAlias(m, guestAliases, "phone"),
		Name:     firstAlias(m, guestAliases, "name"),
		Language: ptrStr(guestLanguage(m)),
	}
}

// guestLanguage prefers an explicit language/locale field; a bare country
// code is only a hint and goes through countryToLang.
func guestLanguage(m map[string]any) string {
	if lang := firstAlias(m, guestAliases, "language"); lang != "" {
		lang = strings.ToLower(lang)
		if i := strings.IndexAny(lang, "-_"); i > 0 {
			lang = lang[:i]
		}
		return lang
	}
	if c := strings.ToLower(firstAlias(m, guestAliases, "country")); c != "" {
		return countryToLang[c]
	}
	return ""
}
