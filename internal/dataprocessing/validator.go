package dataprocessing

import (
	"strings"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// Validate judges a normalized number. raw is the number as it appeared
// in the log; it decides between an empty and a mangled number.
//
// Reasons are picked by a priority chain and exactly one is reported:
// EmptyNumber, WrongLength, InvalidCountryCode, InvalidCharacters. An
// invalid number that matches none of them is Unclassified.
func Validate(raw, normalized string) domain.ValidationOutcome {
	if isValidNumber(normalized) {
		return domain.ValidationOutcome{IsValid: true, Reasons: []domain.ErrorKind{}}
	}
	return domain.ValidationOutcome{
		IsValid: false,
		Reasons: []domain.ErrorKind{classify(raw, normalized)},
	}
}

func isValidNumber(n string) bool {
	return len(n) == NumberLength && strings.HasPrefix(n, CountryCode) && allDigits(n)
}

func classify(raw, normalized string) domain.ErrorKind {
	switch {
	case strings.TrimSpace(raw) == "":
		return domain.ErrorKindEmptyNumber
	case len(normalized) != NumberLength:
		return domain.ErrorKindWrongLength
	case !strings.HasPrefix(normalized, CountryCode):
		return domain.ErrorKindInvalidCountryCode
	case !allDigits(normalized):
		return domain.ErrorKindInvalidCharacters
	default:
		return domain.ErrorKindUnclassified
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
