// internal/workers/application/send-notification/templates.go
package sendnotification

import (
	"fmt"
	"strings"

	"social-support-intake/internal/common/i18n"
	"social-support-intake/internal/models"
)

var templates = map[string]map[i18n.Locale]models.NotificationTemplate{
	models.NotificationSubmitted: {
		i18n.English: {
			ID:      "application_submitted_en",
			Type:    models.NotificationSubmitted,
			Locale:  string(i18n.English),
			Subject: "Your application has been received",
			Body: "Dear {{name}},\n\n" +
				"Thank you for applying for social support. Your application reference is {{applicationId}}.\n" +
				"We will contact you once it has been reviewed.",
			SMSBody: "Your social support application {{applicationId}} has been received.",
		},
		i18n.Arabic: {
			ID:      "application_submitted_ar",
			Type:    models.NotificationSubmitted,
			Locale:  string(i18n.Arabic),
			Subject: "تم استلام طلبك",
			Body: "عزيزي/عزيزتي {{name}}،\n\n" +
				"شكراً لتقديمك طلب الدعم الاجتماعي. الرقم المرجعي لطلبك هو {{applicationId}}.\n" +
				"سنتواصل معك بعد مراجعة الطلب.",
			SMSBody: "تم استلام طلب الدعم الاجتماعي رقم {{applicationId}}.",
		},
	},
}

// lookupTemplate returns the template for kind in locale, falling back to English.
func lookupTemplate(kind string, locale i18n.Locale) (models.NotificationTemplate, error) {
	byLocale, ok := templates[kind]
	if !ok {
		return models.NotificationTemplate{}, fmt.Errorf("template not found for type: %s", kind)
	}
	if tmpl, ok := byLocale[locale]; ok {
		return tmpl, nil
	}
	return byLocale[i18n.English], nil
}

// renderTemplate replaces {{key}} placeholders and drops any left without a value.
func renderTemplate(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
