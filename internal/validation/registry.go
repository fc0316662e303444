package validation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/josh-kwaku/corporate-ledger/internal/domain"
)

const (
	SchemaBalanceChange = "balanceChange"
	SchemaRegistration  = "registration"
	SchemaLogin         = "login"
	SchemaAccountUpdate = "accountUpdate"
)

// roleAny marks a schema that applies regardless of caller role.
const roleAny = "any"

var ErrSchemaNotFound = errors.New("schema not found")

//go:embed schemas.yaml
var defaultSchemas []byte

type ruleConfig struct {
	Field     string `yaml:"field" validate:"required"`
	Name      string `yaml:"name" validate:"required"`
	Type      string `yaml:"type" validate:"required,oneof=text email password number phoneNumber"`
	MinLength *int   `yaml:"minLength" validate:"omitempty,gte=0"`
	MaxLength *int   `yaml:"maxLength" validate:"omitempty,gte=1"`
	Format    string `yaml:"format" validate:"omitempty,oneof=latin"`
	Required  bool   `yaml:"required"`
}

type registryConfig struct {
	Version int                                `yaml:"version" validate:"gte=1"`
	Schemas map[string]map[string][]ruleConfig `yaml:"schemas" validate:"required,min=1"`
}

// Registry holds the schemas loaded at startup. It is read-only after load.
type Registry struct {
	version int
	schemas map[string]map[string]Schema
}

func DefaultRegistry() (*Registry, error) {
	r, err := LoadRegistry(defaultSchemas)
	if err != nil {
		return nil, fmt.Errorf("DefaultRegistry: %w", err)
	}
	return r, nil
}

func LoadRegistry(data []byte) (*Registry, error) {
	var cfg registryConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("LoadRegistry: decode: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("LoadRegistry: %w", err)
	}

	reg := &Registry{
		version: cfg.Version,
		schemas: make(map[string]map[string]Schema, len(cfg.Schemas)),
	}
	for name, byRole := range cfg.Schemas {
		reg.schemas[name] = make(map[string]Schema, len(byRole))
		for role, rules := range byRole {
			if role != roleAny && !domain.Role(role).IsValid() {
				return nil, fmt.Errorf("LoadRegistry: schema %s: unknown role %q", name, role)
			}
			schema, err := buildSchema(validate, name, rules)
			if err != nil {
				return nil, fmt.Errorf("LoadRegistry: schema %s/%s: %w", name, role, err)
			}
			reg.schemas[name][role] = schema
		}
	}
	return reg, nil
}

func buildSchema(validate *validator.Validate, name string, rules []ruleConfig) (Schema, error) {
	if len(rules) == 0 {
		return Schema{}, errors.New("no field rules")
	}

	seen := make(map[string]struct{}, len(rules))
	out := make([]FieldRule, 0, len(rules))
	for _, rc := range rules {
		if err := validate.Struct(rc); err != nil {
			return Schema{}, fmt.Errorf("field %q: %w", rc.Field, err)
		}
		if _, dup := seen[rc.Field]; dup {
			return Schema{}, fmt.Errorf("field %q declared twice", rc.Field)
		}
		seen[rc.Field] = struct{}{}
		if rc.MinLength != nil && rc.MaxLength != nil && *rc.MinLength > *rc.MaxLength {
			return Schema{}, fmt.Errorf("field %q: minLength %d exceeds maxLength %d", rc.Field, *rc.MinLength, *rc.MaxLength)
		}
		out = append(out, FieldRule{
			Field:       rc.Field,
			DisplayName: rc.Name,
			Type:        FieldType(rc.Type),
			MinLength:   rc.MinLength,
			MaxLength:   rc.MaxLength,
			Format:      Format(rc.Format),
			Required:    rc.Required,
		})
	}
	return NewSchema(name, out...), nil
}

func (r *Registry) Version() int { return r.version }

// Schema returns the rules for name as seen by role, falling back to the
// role-independent table.
func (r *Registry) Schema(name string, role domain.Role) (Schema, error) {
	byRole, ok := r.schemas[name]
	if !ok {
		return Schema{}, fmt.Errorf("Schema: %s: %w", name, ErrSchemaNotFound)
	}
	if s, ok := byRole[string(role)]; ok {
		return s, nil
	}
	if s, ok := byRole[roleAny]; ok {
		return s, nil
	}
	return Schema{}, fmt.Errorf("Schema: %s for role %q: %w", name, role, ErrSchemaNotFound)
}

// Permitted narrows the schema to the fields present in payload. Fields the
// role may not touch are ignored; an empty result is an invalid request.
func (r *Registry) Permitted(name string, role domain.Role, payload Payload) (Schema, error) {
	s, err := r.Schema(name, role)
	if err != nil {
		return Schema{}, fmt.Errorf("Permitted: %w", err)
	}
	narrowed := s.Restrict(payload.Fields(s.Fields())...)
	if narrowed.Len() == 0 {
		return Schema{}, fmt.Errorf("Permitted: no editable fields in request: %w", domain.ErrInvalidRequest)
	}
	return narrowed, nil
}
