package assistant

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	digitRun       = regexp.MustCompile(`\d+`)
	postalRun      = regexp.MustCompile(`\d{4,6}`)
	namePattern    = regexp.MustCompile(`name\s*is\s*(.+)`)
	addressPattern = regexp.MustCompile(`address\s*is\s*(.+)`)
	cityPattern    = regexp.MustCompile(`city\s*is\s*(.+)`)
)

// ExtractDetail pulls the value for field out of a raw customer message
func ExtractDetail(field Field, message string) (string, bool) {
	msg := strings.TrimSpace(message)
	lowered := strings.ToLower(msg)

	switch field {
	case FieldPhone:
		digits := digitRun.FindString(msg)
		if digits == "" {
			return "", false
		}
		if len(digits) > 10 {
			digits = digits[len(digits)-10:]
		}
		return digits, true
	case FieldTableNumber:
		digits := digitRun.FindString(msg)
		return digits, digits != ""
	case FieldPostalCode:
		code := postalRun.FindString(msg)
		return code, code != ""
	case FieldName:
		return labelled(namePattern, lowered, msg)
	case FieldAddressLine1:
		return labelled(addressPattern, lowered, msg)
	case FieldCity:
		return labelled(cityPattern, lowered, msg)
	}
	return msg, msg != ""
}

// labelled takes the text after a "<label> is" phrase, else the whole message, title-cased
func labelled(pattern *regexp.Regexp, lowered, msg string) (string, bool) {
	value := msg
	if sm := pattern.FindStringSubmatch(lowered); sm != nil {
		value = strings.TrimSpace(sm[1])
	}
	if value == "" {
		return "", false
	}
	// Casers keep state, so each call gets its own.
	return cases.Title(language.Und).String(value), true
}

// collectDetail fills the head of the pending queue from the message and
// finalizes once nothing is left.
func (e *Engine) collectDetail(t *turn) (Reply, error) {
	st := t.state
	// Re-derive the queue so a changed order type never leaves fields from the wrong list.
	st.PendingFields = st.CollectedDetails.Missing(st.OrderType)
	if len(st.PendingFields) == 0 {
		return e.finalize(t, false)
	}

	field := st.PendingFields[0]
	value, ok := ExtractDetail(field, t.message)
	if !ok {
		return textf("Please share your %s.", field.Label()), nil
	}
	st.CollectedDetails.Set(field, value)
	st.PendingFields = append([]Field{}, st.PendingFields[1:]...)

	if len(st.PendingFields) > 0 {
		return textf("Thanks! Now share your %s.", st.PendingFields[0].Label()), nil
	}
	return e.finalize(t, false)
}
