package validator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom tags for the checkout form. The patterns mirror what the storefront
// UI accepts on blur.
const (
	TagNonBlank   = "nonblank"
	TagEmailShape = "email_shape"
	TagCardNumber = "card_number"
	TagExpiryMMYY = "expiry_mmyy"
	TagCVV        = "cvv"
	TagPostalCode = "postal_code"
)

var (
	emailShapeRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	cardNumberRe = regexp.MustCompile(`^\d{4}\s?\d{4}\s?\d{4}\s?\d{4}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
	postalCodeRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so API clients can map errors back to inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, TagNonBlank, func(s string) bool { return strings.TrimSpace(s) != "" })
	mustRegister(v, TagEmailShape, emailShapeRe.MatchString)
	mustRegister(v, TagCardNumber, cardNumberRe.MatchString)
	mustRegister(v, TagExpiryMMYY, expiryRe.MatchString)
	mustRegister(v, TagCVV, cvvRe.MatchString)
	mustRegister(v, TagPostalCode, postalCodeRe.MatchString)

	return v
}

func mustRegister(v *validator.Validate, tag string, match func(string) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return match(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Validate validates a struct using go-playground/validator tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: validationErrors}
		}
		return err
	}
	return nil
}

// ValidateVar validates a single value against a tag expression. Failures are
// reported under the given field name.
func ValidateVar(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: validationErrors, field: field}
		}
		return err
	}
	return nil
}

// ValidationError wraps validator.ValidationErrors with a user-friendly message.
type ValidationError struct {
	Errors validator.ValidationErrors
	field  string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", e.name(err), msgForTag(err)))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a map of field names to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		fields[e.name(err)] = msgForTag(err)
	}
	return fields
}

// Tags returns a map of field names to the tag that failed first.
func (e *ValidationError) Tags() map[string]string {
	tags := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		name := e.name(err)
		if _, seen := tags[name]; !seen {
			tags[name] = err.Tag()
		}
	}
	return tags
}

func (e *ValidationError) name(fe validator.FieldError) string {
	if fe.Field() == "" && e.field != "" {
		return e.field
	}
	return fe.Field()
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", TagNonBlank:
		return "is required"
	case "email", TagEmailShape:
		return "must be a valid email address"
	case TagCardNumber:
		return "must be a 16 digit card number"
	case TagExpiryMMYY:
		return "must be a MM/YY expiry date"
	case TagCVV:
		return "must be 3 or 4 digits"
	case TagPostalCode:
		return "must be a 5 digit ZIP code"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// DecodeAndValidate reads JSON from the request body, decodes it into dst,
// and validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
