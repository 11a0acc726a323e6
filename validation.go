package sightings

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map suitable for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}

// ValidateStringEquals builds a rule asserting the value matches expected.
func ValidateStringEquals(expected string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return errors.New("values do not match")
		}
		return nil
	}
}

// ValidatePhoneNumber builds a rule that parses the value as a phone number
// for the given default region.
func ValidatePhoneNumber(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		num, err := phonenumbers.Parse(s, region)
		if err != nil {
			return fmt.Errorf("invalid phone number: %v", err)
		}

		if !phonenumbers.IsValidNumber(num) {
			return errors.New("invalid phone number")
		}

		return nil
	}
}
