package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
)

// Payload is a decoded request body keyed by field name.
type Payload map[string]any

// String returns the field value in the form the rules are evaluated against.
func (p Payload) String(field string) (string, bool) {
	raw, ok := p[field]
	if !ok {
		return "", false
	}
	return stringify(raw)
}

// Fields returns the keys of p that are also in allowed, in allowed order.
func (p Payload) Fields(allowed []string) []string {
	var out []string
	for _, f := range allowed {
		if _, ok := p[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

type ErrorMap map[string]string

// ValidationError carries one message per failing field.
type ValidationError struct {
	Errors ErrorMap
	Order  []string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Order))
	for _, f := range e.Order {
		parts = append(parts, f+": "+e.Errors[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return domain.ErrValidationFailed }

// FieldFailure builds a ValidationError for a single field.
func FieldFailure(field, message string) *ValidationError {
	return &ValidationError{
		Errors: ErrorMap{field: message},
		Order:  []string{field},
	}
}

var (
	emailRe  = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)
	phoneRe  = regexp.MustCompile(`^\+[0-9]+$`)
	numberRe = regexp.MustCompile(`^[0-9]+$`)
	latinRe  = regexp.MustCompile(`^[A-Za-z]+( [A-Za-z]+)*$`)
)

var passwordChecks = []struct {
	re  *regexp.Regexp
	msg string
}{
	{regexp.MustCompile(`[a-z]`), "%s must contain at least 1 lowercase alphabetical character"},
	{regexp.MustCompile(`[A-Z]`), "%s must contain at least 1 uppercase alphabetical character"},
	{regexp.MustCompile(`[0-9]`), "%s must contain at least 1 numeric character"},
	{regexp.MustCompile(`[!@#$%^&*()]`), "%s must contain at least one special character"},
}

// Validate checks payload against every rule of schema. Failures accumulate
// across fields; each field reports only its first failure. On success the
// payload is returned unchanged.
func Validate(schema Schema, payload Payload) (Payload, error) {
	var verr *ValidationError
	for _, rule := range schema.rules {
		msg, failed := checkField(rule, payload)
		if !failed {
			continue
		}
		if verr == nil {
			verr = &ValidationError{Errors: ErrorMap{}}
		}
		verr.Errors[rule.Field] = msg
		verr.Order = append(verr.Order, rule.Field)
	}
	if verr != nil {
		return nil, verr
	}
	return payload, nil
}

func checkField(rule FieldRule, payload Payload) (string, bool) {
	value, present := payload.String(rule.Field)
	if !present {
		if rule.Required {
			return fmt.Sprintf("%s is required!", rule.DisplayName), true
		}
		return "", false
	}

	if msg := checkType(rule, value); msg != "" {
		return msg, true
	}

	n := utf8.RuneCountInString(value)
	if rule.MinLength != nil && n < *rule.MinLength {
		return fmt.Sprintf("%s must have at least %d characters.", rule.DisplayName, *rule.MinLength), true
	}
	if rule.MaxLength != nil && n > *rule.MaxLength {
		return fmt.Sprintf("%s must have at most %d characters.", rule.DisplayName, *rule.MaxLength), true
	}

	if rule.Format == FormatLatin && !latinRe.MatchString(value) {
		return fmt.Sprintf("%s can contain only latin letters", rule.DisplayName), true
	}
	return "", false
}

func checkType(rule FieldRule, value string) string {
	switch rule.Type {
	case TypeEmail:
		if !emailRe.MatchString(value) {
			return "Please enter a valid email address."
		}
	case TypePassword:
		for _, c := range passwordChecks {
			if !c.re.MatchString(value) {
				return fmt.Sprintf(c.msg, rule.DisplayName)
			}
		}
	case TypePhoneNumber:
		if !phoneRe.MatchString(value) {
			return fmt.Sprintf("%s must start with + and contain only numbers", rule.DisplayName)
		}
	case TypeNumber:
		if !numberRe.MatchString(value) {
			return fmt.Sprintf("%s can contain only numbers", rule.DisplayName)
		}
	}
	return ""
}

func stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return fmt.Sprint(x), true
	}
}
