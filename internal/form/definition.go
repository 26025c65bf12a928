// internal/form/definition.go
//
// Xplora – Forms subsystem: YAML definition loader.
//
// Context
//   Every user-editable form is declared in a YAML file.  The file defines the
//   form’s identifier, title, and fields together with their validation rules
//   and the messages shown when a rule fires.  Definitions are parsed once at
//   start-up (usually from an embed.FS owned by the component) and stored in
//   an in-memory registry so the validator always works from a single source
//   of truth.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef → Condition/Messages.
//   •  ParseFormDef parses raw YAML and validates structural rules.
//   •  RegisterFS walks an fs.FS, parses every “*.yaml”, and registers it.
//   •  GetFormDef offers safe, read-only access to a parsed form by ID.
//
// Style
//   Full sentences, two spaces after periods, Oxford commas.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
//
// The form is uniquely identified by ID which should be namespaced by component,
// e.g. “booking/review”.
type FormDef struct {
	ID     string     `yaml:"id"`     // Component-scoped identifier.
	Title  string     `yaml:"title"`  // Display title, optional.
	Fields []FieldDef `yaml:"fields"` // Ordered field list.

	compiled map[string]*regexp.Regexp // Field name → compiled pattern.
}

// FieldDef describes a single input control on the form.  Validation metadata
// lives inline so the server enforces the same rules the client hints at.
type FieldDef struct {
	Name         string     `yaml:"name"`          // Submission key.  Required.
	Label        string     `yaml:"label"`         // Human-readable label.  Required.
	Type         string     `yaml:"type"`          // text, email, tel, radio, select, password.
	Placeholder  string     `yaml:"placeholder"`   // Optional placeholder text.
	Required     bool       `yaml:"required"`      // True if input is mandatory.
	RequiredWhen *Condition `yaml:"required_when"` // Conditional requirement, optional.
	MinLength    int        `yaml:"minlength"`     // ≥ 0, 0 means unset.  Counted in runes.
	MaxLength    int        `yaml:"maxlength"`     // ≥ 0, 0 means unset.
	Pattern      string     `yaml:"pattern"`       // Regex pattern string.
	Options      []string   `yaml:"options"`       // For select/radio.  Optional.
	Messages     Messages   `yaml:"messages"`      // Per-rule messages, optional.
}

// Condition makes a field mandatory only while another field holds a value.
type Condition struct {
	Field  string `yaml:"field"`
	Equals string `yaml:"equals"`
}

// Messages overrides the default user-facing text for each rule.
type Messages struct {
	Required  string `yaml:"required"`
	MinLength string `yaml:"minlength"`
	MaxLength string `yaml:"maxlength"`
	Pattern   string `yaml:"pattern"`
	Invalid   string `yaml:"invalid"`
}

// Field returns the FieldDef named name.
func (fd *FormDef) Field(name string) (FieldDef, bool) {
	for _, f := range fd.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// HasField reports whether name is declared on the form.
func (fd *FormDef) HasField(name string) bool {
	_, ok := fd.Field(name)
	return ok
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// registry maps form ID → *FormDef.  Guarded by mutex.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

// GetFormDef returns a parsed FormDef by ID.  The boolean is false when the ID
// is unknown.
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// Register inserts or overrides fd in the registry.  Caller must ensure the
// FormDef came from ParseFormDef.
func Register(fd *FormDef) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[fd.ID] = fd
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// ParseFormDef parses one YAML document, validates its structure, and returns
// a populated FormDef.  source only labels error messages.  It NEVER mutates
// the global registry.
func ParseFormDef(raw []byte, source string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", source, err)
	}

	if err := validateFormDef(&fd, source); err != nil {
		return nil, err
	}
	return &fd, nil
}

// RegisterFS walks fsys from root and registers every “*.yaml” it finds.  Later
// files override earlier ones with the same ID.
//
// Example:
//
//	//go:embed forms/*.yaml
//	var forms embed.FS
//	err := form.RegisterFS(forms, "forms")
func RegisterFS(fsys fs.FS, root string) error {
	if fsys == nil {
		return errors.New("RegisterFS: nil filesystem")
	}

	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
			return nil // skip non-YAML
		}

		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read form file %s: %w", path, err)
		}
		fd, err := ParseFormDef(raw, path)
		if err != nil {
			return err // fail fast so issues surface loudly.
		}
		Register(fd)
		return nil
	})
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// validateFormDef enforces structural rules that cannot be expressed via YAML
// tags alone and compiles patterns once.
func validateFormDef(fd *FormDef, source string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", source)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", source)
	}

	fd.compiled = make(map[string]*regexp.Regexp)
	names := make(map[string]struct{}, len(fd.Fields))

	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, source); err != nil {
			return err
		}
		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", source, f.Name)
		}
		names[f.Name] = struct{}{}

		if f.Pattern != "" {
			fd.compiled[f.Name] = regexp.MustCompile(f.Pattern) // checked in validateField
		}
	}

	// Conditions must point at declared fields.
	for _, f := range fd.Fields {
		if f.RequiredWhen == nil {
			continue
		}
		if _, ok := names[f.RequiredWhen.Field]; !ok {
			return fmt.Errorf("form %s: field '%s' required_when references unknown field '%s'",
				source, f.Name, f.RequiredWhen.Field)
		}
	}

	return nil
}

// knownTypes lists field types the validator understands.
var knownTypes = map[string]bool{
	"text":     true,
	"email":    true,
	"tel":      true,
	"password": true,
	"radio":    true,
	"select":   true,
}

// validateField confirms that essential attributes are present and sane.
func validateField(f *FieldDef, source string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", source)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", source, f.Name)
	}
	if f.Type == "" {
		return fmt.Errorf("form %s: field '%s' missing 'type'", source, f.Name)
	}
	if !knownTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type '%s'", source, f.Name, f.Type)
	}

	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return fmt.Errorf("form %s: field '%s' invalid regex pattern: %v", source, f.Name, err)
		}
	}

	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' minlength/maxlength cannot be negative", source, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", source, f.Name)
	}
	if (f.Type == "radio" || f.Type == "select") && len(f.Options) == 0 {
		return fmt.Errorf("form %s: field '%s' needs 'options'", source, f.Name)
	}
	if f.Required && f.RequiredWhen != nil {
		return fmt.Errorf("form %s: field '%s' cannot set both 'required' and 'required_when'", source, f.Name)
	}

	return nil
}
