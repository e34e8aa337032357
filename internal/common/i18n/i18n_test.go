package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggle(t *testing.T) {
	assert.Equal(t, Arabic, English.Toggle())
	assert.Equal(t, English, Arabic.Toggle())
	assert.Equal(t, English, English.Toggle().Toggle())
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "ltr", English.Direction())
	assert.Equal(t, "rtl", Arabic.Direction())
}

func TestLabel(t *testing.T) {
	tests := []struct {
		locale Locale
		key    string
		want   string
	}{
		{English, "appTitle", "Social Support Application"},
		{Arabic, "appTitle", "طلب الدعم الاجتماعي"},
		{English, "actions.help", "Help Me Write"},
		{Arabic, "step3.aiError", "تعذر تحميل الاقتراح. حاول مرة أخرى."},
		{English, "step3.aiTitle", "AI Suggestion"},
		{Arabic, "no.such.key", "no.such.key"},
		{Locale("fr"), "actions.back", "Back"},
	}

	for _, tt := range tests {
		t.Run(string(tt.locale)+"/"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.locale.Label(tt.key))
		})
	}
}

func TestTablesHaveSameKeys(t *testing.T) {
	en := English.Labels()
	ar := Arabic.Labels()
	assert.Equal(t, len(en), len(ar))
	for k := range en {
		_, ok := ar[k]
		assert.True(t, ok, "missing arabic label %s", k)
	}
}

func TestLabels_ReturnsCopy(t *testing.T) {
	labels := English.Labels()
	labels["appTitle"] = "changed"
	assert.Equal(t, "Social Support Application", English.Label("appTitle"))
}

func TestMatch(t *testing.T) {
	assert.Equal(t, Arabic, Match("ar-AE,ar;q=0.9,en;q=0.8"))
	assert.Equal(t, English, Match("en-US,en;q=0.9"))
	assert.Equal(t, English, Match(""))
	assert.Equal(t, English, Match("de-DE"))
}

func TestParse(t *testing.T) {
	assert.Equal(t, Arabic, Parse("AR"))
	assert.Equal(t, English, Parse("en"))
	assert.Equal(t, English, Parse("xx"))
	assert.True(t, Arabic.Valid())
	assert.False(t, Locale("xx").Valid())
}
