package checkout

import (
	"errors"
	"strings"

	"github.com/utafrali/storefront/pkg/validator"
)

// Field names a checkout form input.
type Field string

// Checkout form fields, in form order.
const (
	FieldEmail      Field = "email"
	FieldFirstName  Field = "firstName"
	FieldLastName   Field = "lastName"
	FieldAddress    Field = "address"
	FieldCity       Field = "city"
	FieldZipCode    Field = "zipCode"
	FieldCardNumber Field = "cardNumber"
	FieldExpiryDate Field = "expiryDate"
	FieldCVV        Field = "cvv"
)

// Fields lists every form field in display order.
var Fields = []Field{
	FieldEmail, FieldFirstName, FieldLastName, FieldAddress, FieldCity,
	FieldZipCode, FieldCardNumber, FieldExpiryDate, FieldCVV,
}

// Form is the contact and payment form. Values are trimmed before they are
// validated.
type Form struct {
	Email      string `json:"email" validate:"nonblank,email_shape"`
	FirstName  string `json:"firstName" validate:"nonblank"`
	LastName   string `json:"lastName" validate:"nonblank"`
	Address    string `json:"address" validate:"nonblank"`
	City       string `json:"city" validate:"nonblank"`
	ZipCode    string `json:"zipCode" validate:"nonblank,postal_code"`
	CardNumber string `json:"cardNumber" validate:"nonblank,card_number"`
	ExpiryDate string `json:"expiryDate" validate:"nonblank,expiry_mmyy"`
	CVV        string `json:"cvv" validate:"nonblank,cvv"`
}

var fieldTags = map[Field]string{
	FieldEmail:      validator.TagNonBlank + "," + validator.TagEmailShape,
	FieldFirstName:  validator.TagNonBlank,
	FieldLastName:   validator.TagNonBlank,
	FieldAddress:    validator.TagNonBlank,
	FieldCity:       validator.TagNonBlank,
	FieldZipCode:    validator.TagNonBlank + "," + validator.TagPostalCode,
	FieldCardNumber: validator.TagNonBlank + "," + validator.TagCardNumber,
	FieldExpiryDate: validator.TagNonBlank + "," + validator.TagExpiryMMYY,
	FieldCVV:        validator.TagNonBlank + "," + validator.TagCVV,
}

var tagMessages = map[string]string{
	validator.TagNonBlank:   "This field is required",
	validator.TagEmailShape: "Please enter a valid email address",
	validator.TagCardNumber: "Please enter a valid card number",
	validator.TagExpiryMMYY: "Please enter a valid expiry date (MM/YY)",
	validator.TagCVV:        "Please enter a valid CVV",
	validator.TagPostalCode: "Please enter a valid ZIP code",
}

// IsField reports whether f names a form field.
func IsField(f Field) bool {
	_, ok := fieldTags[f]
	return ok
}

func (f *Form) ptr(field Field) *string {
	switch field {
	case FieldEmail:
		return &f.Email
	case FieldFirstName:
		return &f.FirstName
	case FieldLastName:
		return &f.LastName
	case FieldAddress:
		return &f.Address
	case FieldCity:
		return &f.City
	case FieldZipCode:
		return &f.ZipCode
	case FieldCardNumber:
		return &f.CardNumber
	case FieldExpiryDate:
		return &f.ExpiryDate
	case FieldCVV:
		return &f.CVV
	default:
		return nil
	}
}

// Value returns the current value of field.
func (f Form) Value(field Field) string {
	if p := f.ptr(field); p != nil {
		return *p
	}
	return ""
}

// Set assigns value to field. Unknown fields are ignored.
func (f *Form) Set(field Field, value string) {
	if p := f.ptr(field); p != nil {
		*p = value
	}
}

// Normalize returns a copy with every value trimmed.
func (f Form) Normalize() Form {
	for _, field := range Fields {
		p := f.ptr(field)
		*p = strings.TrimSpace(*p)
	}
	return f
}

// ValidateField checks one value and returns the user-facing message, or ""
// when it is valid.
func ValidateField(field Field, value string) string {
	tags, ok := fieldTags[field]
	if !ok {
		return ""
	}
	err := validator.ValidateVar(string(field), strings.TrimSpace(value), tags)
	if err == nil {
		return ""
	}
	var ve *validator.ValidationError
	if errors.As(err, &ve) {
		for _, tag := range ve.Tags() {
			return messageFor(tag)
		}
	}
	return messageFor("")
}

// ValidateForm checks every field and returns field -> message for failures.
func ValidateForm(f Form) map[Field]string {
	out := make(map[Field]string)
	err := validator.Validate(f.Normalize())
	if err == nil {
		return out
	}
	var ve *validator.ValidationError
	if !errors.As(err, &ve) {
		return out
	}
	for name, tag := range ve.Tags() {
		out[Field(name)] = messageFor(tag)
	}
	return out
}

func messageFor(tag string) string {
	if msg, ok := tagMessages[tag]; ok {
		return msg
	}
	return tagMessages[validator.TagNonBlank]
}
