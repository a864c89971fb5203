package event

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/paywall-split/paywall-split/internal/variant"
)

// ValidationError reports every field of an event that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range []string{"type", "variant", "url", "timestamp"} {
		if msg, ok := e.Fields[name]; ok {
			parts = append(parts, name+": "+msg)
		}
	}
	return "invalid event: " + strings.Join(parts, "; ")
}

// Validator checks events against the schema and a variant set.
type Validator struct {
	variants variant.Set
	validate *validator.Validate
}

func NewValidator(variants variant.Set) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{variants: variants, validate: v}
}

// Validate returns nil or a *ValidationError.
func (v *Validator) Validate(e Event) error {
	fields := make(map[string]string)

	if err := v.validate.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate event: %w", err)
		}
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
	}

	if _, bad := fields["variant"]; !bad && !v.variants.Contains(variant.Variant(e.Variant)) {
		fields["variant"] = fmt.Sprintf("must be one of %s", v.variants)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ",")
	case "url":
		return "must be an absolute URL"
	case "datetime":
		return "must be an ISO-8601 date-time"
	default:
		return "failed " + fe.Tag()
	}
}
