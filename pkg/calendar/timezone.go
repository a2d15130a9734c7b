package calendar

import (
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// Windows zone names seen in Outlook and Exchange exports
var windowsToIANA = map[string]string{
	"Pacific Standard Time":        "America/Los_Angeles",
	"Mountain Standard Time":       "America/Denver",
	"Central Standard Time":        "America/Chicago",
	"Eastern Standard Time":        "America/New_York",
	"Atlantic Standard Time":       "America/Halifax",
	"Alaskan Standard Time":        "America/Anchorage",
	"Hawaiian Standard Time":       "Pacific/Honolulu",
	"GMT Standard Time":            "Europe/London",
	"W. Europe Standard Time":      "Europe/Berlin",
	"Romance Standard Time":        "Europe/Paris",
	"Central Europe Standard Time": "Europe/Budapest",
	"China Standard Time":          "Asia/Shanghai",
	"Tokyo Standard Time":          "Asia/Tokyo",
	"India Standard Time":          "Asia/Kolkata",
	"AUS Eastern Standard Time":    "Australia/Sydney",
}

// resolveTimezone returns the location of a date-time property. A Windows
// TZID is rewritten in place to its IANA name so that ical's own parsing can
// load it. UTC values resolve to time.UTC and floating values to time.Local.
func resolveTimezone(prop *ical.Prop) *time.Location {
	if tzid := prop.Params.Get(ical.ParamTimezoneID); tzid != "" {
		if ianaName, ok := windowsToIANA[tzid]; ok {
			prop.Params.Set(ical.ParamTimezoneID, ianaName)
			tzid = ianaName
		}
		if loc, err := time.LoadLocation(tzid); err == nil {
			return loc
		}
	}

	if strings.HasSuffix(prop.Value, "Z") {
		return time.UTC
	}
	return time.Local
}
