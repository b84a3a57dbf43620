package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateQuestion, Question{})
	return v
}

// validateQuestion keeps correctAnswer pointing inside options.
func validateQuestion(sl validator.StructLevel) {
	q := sl.Current().Interface().(Question)
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		sl.ReportError(q.CorrectAnswer, "CorrectAnswer", "correctAnswer", "answerindex", "")
	}
}

// Validate checks a model value against its validate tags.
func Validate(v interface{}) error {
	return validate.Struct(v)
}
