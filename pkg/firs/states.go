package firs

import "strings"

// Nigerian state codes used in FIRS party addresses (ISO 3166-2:NG suffixes).
var stateCodes = map[string]string{
	"abia": "AB", "adamawa": "AD", "akwa ibom": "AK", "anambra": "AN",
	"bauchi": "BA", "bayelsa": "BY", "benue": "BE", "borno": "BO",
	"cross river": "CR", "delta": "DE", "ebonyi": "EB", "edo": "ED",
	"ekiti": "EK", "enugu": "EN", "gombe": "GO", "imo": "IM",
	"jigawa": "JI", "kaduna": "KD", "kano": "KN", "katsina": "KT",
	"kebbi": "KE", "kogi": "KO", "kwara": "KW", "lagos": "LA",
	"nasarawa": "NA", "niger": "NI", "ogun": "OG", "ondo": "ON",
	"osun": "OS", "oyo": "OY", "plateau": "PL", "rivers": "RI",
	"sokoto": "SO", "taraba": "TA", "yobe": "YO", "zamfara": "ZA",
	"abuja": "FC", "fct": "FC", "federal capital territory": "FC",
}

// StateCode maps a state name to its two-letter code. Unknown names fall
// back to FC (Federal Capital Territory), mirroring the platform default.
func StateCode(name string) string {
	if code, ok := stateCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}
	return "FC"
}

// IsKnownState reports whether the state name maps to a catalogue entry.
func IsKnownState(name string) bool {
	_, ok := stateCodes[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
