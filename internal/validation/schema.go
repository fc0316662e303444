package validation

type FieldType string

const (
	TypeText        FieldType = "text"
	TypeEmail       FieldType = "email"
	TypePassword    FieldType = "password"
	TypeNumber      FieldType = "number"
	TypePhoneNumber FieldType = "phoneNumber"
)

type Format string

const FormatLatin Format = "latin"

// FieldRule describes how a single payload field is checked.
type FieldRule struct {
	Field       string
	DisplayName string
	Type        FieldType
	MinLength   *int
	MaxLength   *int
	Format      Format
	Required    bool
}

// Schema is an ordered, immutable list of field rules.
type Schema struct {
	name  string
	rules []FieldRule
}

func NewSchema(name string, rules ...FieldRule) Schema {
	cp := make([]FieldRule, len(rules))
	copy(cp, rules)
	return Schema{name: name, rules: cp}
}

func (s Schema) Name() string { return s.name }

func (s Schema) Len() int { return len(s.rules) }

func (s Schema) Rules() []FieldRule {
	cp := make([]FieldRule, len(s.rules))
	copy(cp, s.rules)
	return cp
}

func (s Schema) Fields() []string {
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Field
	}
	return out
}

// Restrict keeps only the rules for the given fields, in schema order.
func (s Schema) Restrict(fields ...string) Schema {
	keep := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		keep[f] = struct{}{}
	}

	var rules []FieldRule
	for _, r := range s.rules {
		if _, ok := keep[r.Field]; ok {
			rules = append(rules, r)
		}
	}
	return Schema{name: s.name, rules: rules}
}

func IntPtr(n int) *int { return &n }
