package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"soundcrew/internal/models"
)

// FlatError mirrors the flattened shape clients already parse:
// form level messages plus messages per top level field.
type FlatError struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func (e *FlatError) Error() string {
	keys := make([]string, 0, len(e.FieldErrors))
	for k := range e.FieldErrors {
		keys = append(keys, k)
	}
	return "validation failed: " + strings.Join(append(e.FormErrors, keys...), ", ")
}

// Add records a message under field, or as a form error when field is empty.
func (e *FlatError) Add(field, msg string) {
	if field == "" {
		e.FormErrors = append(e.FormErrors, msg)
		return
	}
	if e.FieldErrors == nil {
		e.FieldErrors = map[string][]string{}
	}
	e.FieldErrors[field] = append(e.FieldErrors[field], msg)
}

func (e *FlatError) Empty() bool {
	return len(e.FormErrors) == 0 && len(e.FieldErrors) == 0
}

// NewFieldError is a shortcut for a single field message.
func NewFieldError(field, msg string) *FlatError {
	fe := &FlatError{FormErrors: []string{}}
	fe.Add(field, msg)
	return fe
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("genre", oneOf(models.Genres))
	_ = v.RegisterValidation("role", oneOf(models.Roles))
	_ = v.RegisterValidation("filesize", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		switch f.Kind() {
		case reflect.Int, reflect.Int32, reflect.Int64:
			return f.Int() <= models.MaxAttachmentSize
		}
		return false
	})
	return &Validator{validate: v}
}

func oneOf(values []string) validator.Func {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

// Struct validates s and returns a *FlatError for rule violations.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return Flatten(verrs)
}

// Flatten groups validator errors by the top level JSON field.
func Flatten(verrs validator.ValidationErrors) *FlatError {
	fe := &FlatError{FormErrors: []string{}, FieldErrors: map[string][]string{}}
	for _, e := range verrs {
		fe.Add(topField(e.Namespace()), message(e))
	}
	return fe
}

// topField turns "ArtistInput.tracks[1].url" into "tracks".
func topField(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.IndexAny(ns, ".["); i >= 0 {
		ns = ns[:i]
	}
	return ns
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Required"
	case "url":
		return "Invalid url"
	case "genre", "role", "oneof":
		return "Invalid enum value"
	case "filesize":
		return "첨부 파일은 10MB 이하만 가능합니다."
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("Array must contain at least %s element(s)", e.Param())
		}
		return fmt.Sprintf("String must contain at least %s character(s)", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("Array must contain at most %s element(s)", e.Param())
		}
		return fmt.Sprintf("String must contain at most %s character(s)", e.Param())
	case "gte":
		return fmt.Sprintf("Number must be greater than or equal to %s", e.Param())
	}
	return "Invalid input"
}
