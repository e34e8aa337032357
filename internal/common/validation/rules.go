// Package validation holds the generic checking machinery: ordered per-field rule sets
// built on ozzo-validation, and JSON Schema checks for stored documents.
package validation

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
)

// RuleSet is an ordered list of checks for one field. The first failing check wins.
type RuleSet []ozzo.Rule

// Check runs the rules against raw and returns the first failure message.
func (rs RuleSet) Check(raw string) (string, bool) {
	if err := ozzo.Validate(raw, rs...); err != nil {
		return err.Error(), false
	}
	return "", true
}

// Validate checks every field in rules against values. Missing values are treated as empty.
// The result maps each failing field to its message and is empty when everything passes.
func Validate(values map[string]string, rules map[string]RuleSet) map[string]string {
	failures := map[string]string{}
	for field, rs := range rules {
		if msg, ok := rs.Check(values[field]); !ok {
			failures[field] = msg
		}
	}
	return failures
}

// Required fails when the value is empty after trimming whitespace.
func Required(message string) ozzo.Rule {
	return ozzo.By(func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(message)
		}
		return nil
	})
}

// Pattern fails when a non-empty value does not match expr.
func Pattern(expr *regexp.Regexp, message string) ozzo.Rule {
	return ozzo.Match(expr).Error(message)
}

// MinLength fails when a non-empty value has fewer than n characters.
func MinLength(n int, message string) ozzo.Rule {
	return ozzo.RuneLength(n, 0).Error(message)
}

// MaxLength fails when a value has more than n characters.
func MaxLength(n int, message string) ozzo.Rule {
	return ozzo.RuneLength(0, n).Error(message)
}

// Predicate fails when fn returns false for a non-empty value.
func Predicate(fn func(string) bool, message string) ozzo.Rule {
	return ozzo.By(func(value interface{}) error {
		s, _ := value.(string)
		if s == "" || fn(s) {
			return nil
		}
		return errors.New(message)
	})
}

// Integer fails when a non-empty value is not a whole number.
func Integer(message string) ozzo.Rule {
	return Predicate(func(s string) bool {
		_, err := ParseInteger(s)
		return err == nil
	}, message)
}

// Numeric fails when a non-empty value is not a decimal number.
func Numeric(message string) ozzo.Rule {
	return Predicate(func(s string) bool {
		_, err := ParseNumber(s)
		return err == nil
	}, message)
}

// Min fails when a numeric value is below min. Non-numeric values pass so Numeric can report them.
func Min(min float64, message string) ozzo.Rule {
	return Predicate(func(s string) bool {
		n, err := ParseNumber(s)
		return err != nil || n >= min
	}, message)
}

// Max fails when a numeric value is above max.
func Max(max float64, message string) ozzo.Rule {
	return Predicate(func(s string) bool {
		n, err := ParseNumber(s)
		return err != nil || n <= max
	}, message)
}

var errNotDecimal = errors.New("not a finite decimal number")

// ParseNumber parses a trimmed decimal. NaN, infinities and hex floats are rejected.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "xXpP_") {
		return 0, errNotDecimal
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errNotDecimal
	}
	return n, nil
}

// ParseInteger parses a trimmed whole number.
func ParseInteger(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
