package validation

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSet_FirstFailureWins(t *testing.T) {
	rs := RuleSet{
		Required("Name is required"),
		Pattern(regexp.MustCompile(`^[a-zA-Z\s]+$`), "Name should contain only letters and spaces"),
		MinLength(2, "Name must be at least 2 characters"),
	}

	tests := []struct {
		name    string
		raw     string
		wantOK  bool
		wantMsg string
	}{
		{"empty", "", false, "Name is required"},
		{"whitespace only", "   ", false, "Name is required"},
		{"digits", "123", false, "Name should contain only letters and spaces"},
		{"too short", "A", false, "Name must be at least 2 characters"},
		{"digits and short reports pattern first", "1", false, "Name should contain only letters and spaces"},
		{"valid", "Amal Haddad", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := rs.Check(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestNumericRules(t *testing.T) {
	rs := RuleSet{
		Required("required"),
		Integer("whole"),
		Min(0, "negative"),
		Max(20, "too many"),
	}

	cases := map[string]string{
		"":    "required",
		"abc": "whole",
		"2.5": "whole",
		"-1":  "negative",
		"21":  "too many",
	}
	for raw, want := range cases {
		msg, ok := rs.Check(raw)
		assert.False(t, ok, raw)
		assert.Equal(t, want, msg, raw)
	}

	_, ok := rs.Check(" 3 ")
	assert.True(t, ok)
}

func TestNumeric_RejectsNonFinite(t *testing.T) {
	rs := RuleSet{
		Required("required"),
		Numeric("Please enter a valid income amount"),
		Min(0, "Income cannot be negative"),
		Max(1000000, "too much"),
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"nan", "NaN"},
		{"negative nan", "-nan"},
		{"infinity", "Inf"},
		{"negative infinity", "-Infinity"},
		{"hex float", "0x1p3"},
		{"underscore", "1_000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := rs.Check(tt.raw)
			assert.False(t, ok)
			assert.Equal(t, "Please enter a valid income amount", msg)
		})
	}

	_, ok := rs.Check(" 3000.50 ")
	assert.True(t, ok)
}

func TestParseNumber_And_ParseInteger(t *testing.T) {
	n, err := ParseNumber(" 3000 ")
	require.NoError(t, err)
	assert.Equal(t, 3000.0, n)

	i, err := ParseInteger(" 2")
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	_, err = ParseNumber("Inf")
	assert.Error(t, err)
}

func TestMaxLength_And_Predicate(t *testing.T) {
	rs := RuleSet{
		MaxLength(5, "too long"),
		Predicate(func(s string) bool { return s != "nope" }, "rejected"),
	}

	msg, ok := rs.Check("toolong")
	assert.False(t, ok)
	assert.Equal(t, "too long", msg)

	msg, ok = rs.Check("nope")
	assert.False(t, ok)
	assert.Equal(t, "rejected", msg)

	_, ok = rs.Check("")
	assert.True(t, ok)
}

func TestValidate_AllFields(t *testing.T) {
	rules := map[string]RuleSet{
		"city":    {Required("City is required")},
		"country": {Required("Country is required")},
	}

	failures := Validate(map[string]string{"city": "Dubai"}, rules)
	require.Len(t, failures, 1)
	assert.Equal(t, "Country is required", failures["country"])

	assert.Empty(t, Validate(map[string]string{"city": "Dubai", "country": "UAE"}, rules))
}

func TestSchema_Validate(t *testing.T) {
	schema := MustCompileSchema(`{
		"type": "object",
		"required": ["personal"],
		"properties": {"personal": {"type": "object"}, "count": {"type": "integer", "minimum": 0}}
	}`)

	assert.NoError(t, schema.ValidateBytes([]byte(`{"personal": {}}`)))
	assert.Error(t, schema.ValidateBytes([]byte(`{"count": 1}`)))
	assert.Error(t, schema.ValidateValue(map[string]interface{}{"personal": map[string]interface{}{}, "count": -1}))

	_, err := CompileSchema(`{"type":`)
	assert.Error(t, err)
}
