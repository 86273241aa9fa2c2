package db

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// MaxNameLength is the maximum number of characters of a database name.
const MaxNameLength = 128

var (
	namePattern   = regexp.MustCompile("^[\\pL\\pN_\\-+=~!#$%^&()\\[\\]{}@'`]+$")
	nameValidator = NewNameValidator()
)

// NewNameValidator returns a validator with the "dbname" tag registered.
// The tag checks the name grammar only, combine it with "required" and
// "max" to enforce the length limits.
func NewNameValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterNameValidation(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterNameValidation registers the "dbname" tag on v.
func RegisterNameValidation(v *validator.Validate) error {
	return v.RegisterValidation("dbname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
}

// ValidName reports whether name satisfies the database name grammar.
// The check is purely syntactical and never touches the filesystem.
func ValidName(name string) bool {
	return nameValidator.Var(name, "required,max=128,dbname") == nil
}
