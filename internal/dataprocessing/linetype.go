package dataprocessing

import (
	"github.com/nyaruka/phonenumbers"
)

// Line types reported for valid numbers
const (
	LineTypeFixed       = "fixed_line"
	LineTypeMobile      = "mobile"
	LineTypeFixedMobile = "fixed_line_or_mobile"
	LineTypeTollFree    = "toll_free"
	LineTypePremium     = "premium_rate"
	LineTypeSharedCost  = "shared_cost"
	LineTypeVoIP        = "voip"
	LineTypePersonal    = "personal_number"
	LineTypePager       = "pager"
	LineTypeUAN         = "uan"
	LineTypeVoicemail   = "voicemail"
	LineTypeUnknown     = "unknown"
)

// LineClassifier names the kind of line a valid normalized number reaches.
type LineClassifier interface {
	Classify(normalized string) string
}

// PhoneLineClassifier classifies numbers with libphonenumber metadata.
type PhoneLineClassifier struct{}

// Classify returns the line type of a "33…" number, or LineTypeUnknown
// when the metadata does not recognize it.
func (PhoneLineClassifier) Classify(normalized string) string {
	num, err := phonenumbers.Parse("+"+normalized, "")
	if err != nil {
		return LineTypeUnknown
	}
	switch phonenumbers.GetNumberType(num) {
	case phonenumbers.FIXED_LINE:
		return LineTypeFixed
	case phonenumbers.MOBILE:
		return LineTypeMobile
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return LineTypeFixedMobile
	case phonenumbers.TOLL_FREE:
		return LineTypeTollFree
	case phonenumbers.PREMIUM_RATE:
		return LineTypePremium
	case phonenumbers.SHARED_COST:
		return LineTypeSharedCost
	case phonenumbers.VOIP:
		return LineTypeVoIP
	case phonenumbers.PERSONAL_NUMBER:
		return LineTypePersonal
	case phonenumbers.PAGER:
		return LineTypePager
	case phonenumbers.UAN:
		return LineTypeUAN
	case phonenumbers.VOICEMAIL:
		return LineTypeVoicemail
	default:
		return LineTypeUnknown
	}
}
