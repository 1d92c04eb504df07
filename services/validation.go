package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxCaptionLength = 2200
	MaxCommentLength = 1000
)

// validator считает длину строк в рунах, поэтому max=2200 - это 2200 символов, а не байт
var validate = validator.New()

type postInput struct {
	ImageURL string `validate:"required,url" label:"image_url"`
	Caption  string `validate:"max=2200" label:"caption"`
}

type captionInput struct {
	Caption string `validate:"max=2200" label:"caption"`
}

type commentInput struct {
	Text string `validate:"required,max=1000" label:"text"`
}

func init() {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("label")
	})
}

func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return validationError("invalid input: %v", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeField(fe))
	}
	return validationError("%s", strings.Join(messages, "; "))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
