package userboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidUser reports a create payload outside the accepted bounds.
var ErrInvalidUser = errors.New("userboard: invalid user")

const (
	// MinAge and MaxAge bound the accepted age range (inclusive).
	MinAge = 0
	MaxAge = 150
)

const userSchemaName = "userboard.user.json"

var userSchema = map[string]any{
	"type":     "object",
	"required": []string{"name", "age"},
	"properties": map[string]any{
		"name": map[string]any{"type": "string", "minLength": 1, "pattern": `\S`},
		"age":  map[string]any{"type": "integer", "minimum": MinAge, "maximum": MaxAge},
	},
}

// UserValidator checks a user before it is sent anywhere.
type UserValidator interface {
	ValidateUser(user User) error
}

// JSONSchemaValidator validates users against the embedded JSON schema. The
// schema is compiled on first use.
type JSONSchemaValidator struct {
	mu       sync.Mutex
	compiled *jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{}
}

// ValidateUser ensures name is non-blank and age is within bounds.
func (v *JSONSchemaValidator) ValidateUser(user User) error {
	schema, err := v.schema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("userboard: marshal user: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("userboard: normalize user: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUser, describeSchemaError(err))
	}
	return nil
}

func (v *JSONSchemaValidator) schema() (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.compiled != nil {
		return v.compiled, nil
	}
	data, err := json.Marshal(userSchema)
	if err != nil {
		return nil, fmt.Errorf("userboard: marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(userSchemaName, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("userboard: load schema: %w", err)
	}
	compiled, err := compiler.Compile(userSchemaName)
	if err != nil {
		return nil, fmt.Errorf("userboard: compile schema: %w", err)
	}
	v.compiled = compiled
	return compiled, nil
}

func describeSchemaError(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if field == "" {
		return leaf.Message
	}
	return field + ": " + leaf.Message
}

// ParseCreateForm converts the typed draft into a User. The name is kept as typed.
func ParseCreateForm(form CreateForm) (User, error) {
	raw := strings.TrimSpace(form.Age)
	if raw == "" {
		return User{}, fmt.Errorf("%w: age is required", ErrInvalidUser)
	}
	age, err := strconv.Atoi(raw)
	if err != nil {
		return User{}, fmt.Errorf("%w: age %q is not a whole number", ErrInvalidUser, form.Age)
	}
	return User{Name: form.Name, Age: age}, nil
}
