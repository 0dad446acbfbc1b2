package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	mustRegister(v, "role", func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).IsValid()
	})
	mustRegister(v, "region", func(fl validator.FieldLevel) bool {
		_, ok := LookupRegion(fl.Field().String())
		return ok
	})
	mustRegister(v, "audit_action", func(fl validator.FieldLevel) bool {
		return AuditAction(fl.Field().String()).IsValid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Errorf("register validation %s: %w", tag, err))
	}
}

// StrongPassword requires six characters with upper case, lower case and a symbol.
func StrongPassword(pw string) bool {
	if len(pw) < 6 {
		return false
	}
	var upper, lower, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r):
			symbol = true
		}
	}
	return upper && lower && symbol
}

// Validate checks a record or input struct and returns a *ValidationError
// holding every failing field, or nil.
func Validate(entity EntityType, value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validate %s: %w", entity, err)
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fieldPath(fe)] = validationMessage(fe)
	}
	return &ValidationError{Entity: entity, Fields: fields}
}

// fieldPath drops the struct name prefix from the namespace so nested menu
// items report as "menu[0].price".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "phone":
		return "must be 10 to 15 digits"
	case "password":
		return "must be at least 6 characters with upper case, lower case and a special symbol"
	case "username":
		return "may only contain letters, digits, '.', '-' and '_'"
	case "role":
		return "must be a known role"
	case "region":
		return "must be a known region"
	case "audit_action":
		return "must be a known audit action"
	}
	return "is invalid"
}
