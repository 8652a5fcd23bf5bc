// Package validate checks submitted form fields against a static rule
// configuration. A rule set is an ordered list of fields; each field names
// the normalizers to apply and the checks to run, in order. One generic
// function interprets it, and every failing check is reported, not just
// the first.
package validate

import (
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/keyxmakerx/roster/internal/sanitize"
)

// Check names.
const (
	NonEmpty  = "nonEmpty"
	IsEmail   = "isEmail"
	IsInt     = "isInt"
	MinLength = "minLength"
	MaxLength = "maxLength"
	Length    = "length"
)

// Normalizer names.
const (
	Trim           = "trim"
	Lowercase      = "lowercase"
	NormalizeEmail = "normalizeEmail"
	StripHTML      = "stripHTML"
)

// Rule is one named check with the message reported when it fails. Param
// is the length for the length checks and ignored otherwise.
type Rule struct {
	Check   string
	Param   int
	Message string
}

// Field lists the normalizers and checks for one form field.
type Field struct {
	Name      string
	Normalize []string
	Rules     []Rule
}

// Ruleset is the ordered configuration for one form.
type Ruleset []Field

// FieldError is one failed check.
type FieldError struct {
	Field   string
	Message string
}

// Result is the ordered list of failures. Empty means valid.
type Result []FieldError

// Valid reports whether no check failed.
func (r Result) Valid() bool {
	return len(r) == 0
}

// Messages returns the failure messages in order.
func (r Result) Messages() []string {
	msgs := make([]string, len(r))
	for i, fe := range r {
		msgs[i] = fe.Message
	}
	return msgs
}

// Joined returns all messages joined with " and ".
func (r Result) Joined() string {
	return strings.Join(r.Messages(), " and ")
}

type checkFunc func(value string, param int) bool

var checks = map[string]checkFunc{
	NonEmpty: func(v string, _ int) bool {
		return strings.TrimSpace(v) != ""
	},
	IsEmail: func(v string, _ int) bool {
		addr, err := mail.ParseAddress(v)
		return err == nil && addr.Address == v && strings.Contains(v[strings.LastIndex(v, "@")+1:], ".")
	},
	IsInt: func(v string, _ int) bool {
		_, err := strconv.Atoi(v)
		return err == nil
	},
	MinLength: func(v string, n int) bool {
		return utf8.RuneCountInString(v) >= n
	},
	MaxLength: func(v string, n int) bool {
		return utf8.RuneCountInString(v) <= n
	},
	Length: func(v string, n int) bool {
		return utf8.RuneCountInString(v) == n
	},
}

var normalizers = map[string]func(string) string{
	Trim:      strings.TrimSpace,
	Lowercase: strings.ToLower,
	NormalizeEmail: func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	},
	StripHTML: sanitize.Text,
}

// Validate normalizes values in place per the ruleset and then runs every
// check. Unknown check or normalizer names panic: rule sets are static
// configuration, so a typo is a programming error.
func Validate(values url.Values, rules Ruleset) Result {
	var result Result
	for _, field := range rules {
		value := values.Get(field.Name)

		for _, name := range field.Normalize {
			norm, ok := normalizers[name]
			if !ok {
				panic("validate: unknown normalizer " + name)
			}
			value = norm(value)
		}
		if len(field.Normalize) > 0 {
			values.Set(field.Name, value)
		}

		for _, rule := range field.Rules {
			check, ok := checks[rule.Check]
			if !ok {
				panic("validate: unknown check " + rule.Check)
			}
			if !check(value, rule.Param) {
				result = append(result, FieldError{Field: field.Name, Message: rule.Message})
			}
		}
	}
	return result
}
