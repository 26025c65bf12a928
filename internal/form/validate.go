// internal/form/validate.go
//
// Xplora – Forms subsystem: server-side validation.
//
// Context
//   Screens keep their raw input as strings and ask the validator for a fresh
//   ErrorMap whenever they need one: on every submit attempt, or reactively
//   after an edit.  Validation is pure.  It never mutates the values it is
//   given, and two calls over the same input always return equal maps.
//
// Workflow
//   •  Validate walks the FormDef in declaration order.
//   •  Each value is trimmed, then checked for presence (required or
//      required_when), length, type, pattern, and allowed options.
//   •  Free-text types (text, password) carry no rule of their own.  A
//      form adds one through minlength, maxlength, or pattern.
//   •  The first failing rule per field wins, so each key carries exactly one
//      message.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// -----------------------------------------------------------------------------
// ErrorMap
// -----------------------------------------------------------------------------

// ErrorMap maps a field name to a user-facing message.  A missing key or an
// empty message means the field is valid.
type ErrorMap map[string]string

// Valid reports whether no entry carries a message.
func (m ErrorMap) Valid() bool {
	for _, msg := range m {
		if msg != "" {
			return false
		}
	}
	return true
}

// Has reports whether field currently carries a message.
func (m ErrorMap) Has(field string) bool { return m[field] != "" }

// Clear blanks the message for field.  Safe on a nil map.
func (m ErrorMap) Clear(field string) {
	if m == nil {
		return
	}
	delete(m, field)
}

// Fields returns the names of failing fields in sorted order.
func (m ErrorMap) Fields() []string {
	out := make([]string, 0, len(m))
	for k, msg := range m {
		if msg != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy without empty entries.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, msg := range m {
		if msg != "" {
			out[k] = msg
		}
	}
	return out
}

// Values carries raw submitted input keyed by field name.
type Values map[string]string

// -----------------------------------------------------------------------------
// Built-in patterns
// -----------------------------------------------------------------------------

var (
	// emailPattern accepts local@domain.tld with no whitespace and a single @.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitPattern = regexp.MustCompile(`^[0-9]+$`)
)

// -----------------------------------------------------------------------------
// Public API
// -----------------------------------------------------------------------------

// Validate checks values against fd and returns the failing fields.  The
// returned map is empty, never nil, when every rule passes.
func Validate(fd *FormDef, values Values) ErrorMap {
	errs := make(ErrorMap)

	for i := range fd.Fields {
		f := &fd.Fields[i]
		val := strings.TrimSpace(values[f.Name])

		if val == "" {
			if isRequired(f, values) {
				errs[f.Name] = requiredMsg(f)
			}
			continue // empty optional, nothing more to do.
		}

		if msg := checkValue(fd, f, val); msg != "" {
			errs[f.Name] = msg
		}
	}

	return errs
}

// -----------------------------------------------------------------------------
// Field-level helpers
// -----------------------------------------------------------------------------

func isRequired(f *FieldDef, values Values) bool {
	if f.Required {
		return true
	}
	if c := f.RequiredWhen; c != nil {
		return strings.TrimSpace(values[c.Field]) == c.Equals
	}
	return false
}

func checkValue(fd *FormDef, f *FieldDef, val string) string {
	if msg := lengthCheck(f, val); msg != "" {
		return msg
	}

	switch f.Type {
	case "email":
		if !emailPattern.MatchString(val) {
			return invalidMsg(f)
		}
	case "tel":
		if !digitPattern.MatchString(val) {
			return invalidMsg(f)
		}
	case "radio", "select":
		if !optionAllowed(f.Options, val) {
			return invalidMsg(f)
		}
	}

	if re := fd.compiled[f.Name]; re != nil && !re.MatchString(val) {
		return patternMsg(f)
	}
	return ""
}

// lengthCheck validates minlength / maxlength rules in runes.
func lengthCheck(f *FieldDef, s string) string {
	n := utf8.RuneCountInString(s)
	if f.MinLength > 0 && n < f.MinLength {
		if f.Messages.MinLength != "" {
			return f.Messages.MinLength
		}
		return fmt.Sprintf("%s is too short (at least %d characters).", f.Label, f.MinLength)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		if f.Messages.MaxLength != "" {
			return f.Messages.MaxLength
		}
		return fmt.Sprintf("%s must be at most %d characters.", f.Label, f.MaxLength)
	}
	return ""
}

func optionAllowed(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}

// user-friendly default messages
func requiredMsg(f *FieldDef) string {
	if f.Messages.Required != "" {
		return f.Messages.Required
	}
	return fmt.Sprintf("%s is required.", f.Label)
}
func invalidMsg(f *FieldDef) string {
	if f.Messages.Invalid != "" {
		return f.Messages.Invalid
	}
	return fmt.Sprintf("%s is not valid.", f.Label)
}
func patternMsg(f *FieldDef) string {
	if f.Messages.Pattern != "" {
		return f.Messages.Pattern
	}
	return invalidMsg(f)
}
