// Package i18n holds the wizard's user-facing label tables and locale handling.
// Locale affects presentation only.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

type Locale string

const (
	English Locale = "en"
	Arabic  Locale = "ar"
)

// Default is used when no preference is known.
const Default = English

var matcher = language.NewMatcher([]language.Tag{language.English, language.Arabic})

// Parse returns the supported locale named by s, or Default.
func Parse(s string) Locale {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case Arabic:
		return Arabic
	case English:
		return English
	default:
		return Default
	}
}

// Match picks the best supported locale for an Accept-Language header value.
func Match(acceptLanguage string) Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	if index == 1 {
		return Arabic
	}
	return English
}

func (l Locale) Valid() bool {
	return l == English || l == Arabic
}

// Direction is the text direction for the locale: "rtl" for Arabic, "ltr" otherwise.
func (l Locale) Direction() string {
	if l == Arabic {
		return "rtl"
	}
	return "ltr"
}

// Toggle flips between English and Arabic.
func (l Locale) Toggle() Locale {
	if l == Arabic {
		return English
	}
	return Arabic
}

// Label looks up key in the locale's table, falling back to English and then to the key itself.
func (l Locale) Label(key string) string {
	if v, ok := tables[l][key]; ok {
		return v
	}
	if v, ok := tables[English][key]; ok {
		return v
	}
	return key
}

// Labels returns a copy of the locale's full table.
func (l Locale) Labels() map[string]string {
	src, ok := tables[l]
	if !ok {
		src = tables[English]
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

var tables = map[Locale]map[string]string{
	English: {
		"appTitle":  "Social Support Application",
		"openBadge": "OPEN | مفتوحة",

		"steps.step1": "Personal Information",
		"steps.step2": "Family & Financial Info",
		"steps.step3": "Situation Descriptions",

		"actions.back":     "Back",
		"actions.next":     "Next",
		"actions.continue": "Continue",
		"actions.submit":   "Submit",
		"actions.help":     "Help Me Write",
		"actions.discard":  "Discard",
		"actions.accept":   "Accept",

		"step1.title":      "Personal Information",
		"step1.name":       "Name",
		"step1.nationalId": "National ID",
		"step1.dob":        "Date of Birth",
		"step1.gender":     "Gender",
		"step1.address":    "Address",
		"step1.city":       "City",
		"step1.state":      "State",
		"step1.country":    "Country",
		"step1.phone":      "Phone",
		"step1.email":      "Email",

		"step2.title":            "Family & Financial Info",
		"step2.maritalStatus":    "Marital Status",
		"step2.dependents":       "Dependents",
		"step2.employmentStatus": "Employment Status",
		"step2.monthlyIncome":    "Monthly Income",
		"step2.housingStatus":    "Housing Status",

		"step3.title":                   "Situation Descriptions",
		"step3.financialSituation":      "Current Financial Situation",
		"step3.employmentCircumstances": "Employment Circumstances",
		"step3.reasonForApplying":       "Reason for Applying",
		"step3.aiTitle":                 "AI Suggestion",
		"step3.aiError":                 "Could not load suggestion. Please try again.",

		"submission.success": "Submitted!",
		"submission.error":   "Could not submit your application. Please try again.",
	},
	Arabic: {
		"appTitle":  "طلب الدعم الاجتماعي",
		"openBadge": "OPEN | مفتوحة",

		"steps.step1": "المعلومات الشخصية",
		"steps.step2": "معلومات الأسرة والمالية",
		"steps.step3": "وصف الحالة",

		"actions.back":     "رجوع",
		"actions.next":     "التالي",
		"actions.continue": "متابعة",
		"actions.submit":   "إرسال",
		"actions.help":     "ساعدني في الكتابة",
		"actions.discard":  "تجاهل",
		"actions.accept":   "اعتماد",

		"step1.title":      "المعلومات الشخصية",
		"step1.name":       "الاسم",
		"step1.nationalId": "الرقم الوطني",
		"step1.dob":        "تاريخ الميلاد",
		"step1.gender":     "الجنس",
		"step1.address":    "العنوان",
		"step1.city":       "المدينة",
		"step1.state":      "الولاية",
		"step1.country":    "الدولة",
		"step1.phone":      "الهاتف",
		"step1.email":      "البريد الإلكتروني",

		"step2.title":            "معلومات الأسرة والمالية",
		"step2.maritalStatus":    "الحالة الاجتماعية",
		"step2.dependents":       "المُعالون",
		"step2.employmentStatus": "حالة التوظيف",
		"step2.monthlyIncome":    "الدخل الشهري",
		"step2.housingStatus":    "حالة السكن",

		"step3.title":                   "وصف الحالة",
		"step3.financialSituation":      "الوضع المالي الحالي",
		"step3.employmentCircumstances": "ظروف العمل",
		"step3.reasonForApplying":       "سبب التقديم",
		"step3.aiTitle":                 "اقتراح الذكاء الاصطناعي",
		"step3.aiError":                 "تعذر تحميل الاقتراح. حاول مرة أخرى.",

		"submission.success": "تم الإرسال!",
		"submission.error":   "تعذر إرسال طلبك. حاول مرة أخرى.",
	},
}
