package service

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"

	"study-planner/internal/model"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	timeBandTag  = "timeband"
	timeBandText = "{0} must be one of morning, afternoon, evening, night"
	clockTag     = "hhmm"
	clockText    = "{0} must be a time formatted as HH:MM"
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(timeBandTag, timeBandValidation)
	registerTranslation(timeBandTag, timeBandText)
	_ = Validate.RegisterValidation(clockTag, clockValidation)
	registerTranslation(clockTag, clockText)
}

func registerTranslation(tag, text string) {
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func timeBandValidation(fl validator.FieldLevel) bool {
	band := model.TimeBand(fl.Field().String())
	for _, b := range model.TimeBands {
		if band == b {
			return true
		}
	}
	return false
}

func clockValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(model.ClockLayout, fl.Field().String())
	return err == nil
}

// validate runs struct tags on v and converts failures into a ValidationError
// with translated per-field messages.
func validate(v interface{}) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return errors.Wrap(err, "validating input")
	}
	fields := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		fields = append(fields, FieldError{Field: fe.Field(), Error: fe.Translate(Translator)})
	}
	return NewValidationError(nil, fields...)
}
