package services

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const MAX_POST_LENGTH = 280

// Сообщения об ошибках валидации, показываются пользователю как есть
const (
	MSG_CONTENT_REQUIRED = "Post cannot be empty."
	MSG_ONLY_EMOJIS      = "Only emojis are allowed"
	MSG_TOO_MANY_EMOJIS  = "too many emojis"
)

// CreatePostInput - входные данные для создания поста
type CreatePostInput struct {
	Content string `json:"content" validate:"required,emoji,max=280"`
}

// ValidationError carries field-level messages keyed by JSON field name.
type ValidationError struct {
	FieldErrors map[string][]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.FieldErrors[field], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns the first message for field, if any.
func (e *ValidationError) First(field string) (string, bool) {
	msgs := e.FieldErrors[field]
	if len(msgs) == 0 {
		return "", false
	}
	return msgs[0], true
}

var fieldMessages = map[string]string{
	"required": MSG_CONTENT_REQUIRED,
	"emoji":    MSG_ONLY_EMOJIS,
	"max":      MSG_TOO_MANY_EMOJIS,
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("emoji", func(fl validator.FieldLevel) bool {
		return IsEmojiOnly(fl.Field().String())
	})
	return v
}

// validateStruct runs v over input and converts failures into a ValidationError.
func validateStruct(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{FieldErrors: make(map[string][]string)}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("invalid value (%s)", fe.Tag())
		}
		out.FieldErrors[fe.Field()] = append(out.FieldErrors[fe.Field()], msg)
	}
	return out
}

// IsEmojiOnly reports whether s consists of emoji and whitespace only.
// Joiners, variation selectors and skin tone modifiers are accepted as parts
// of emoji sequences. An empty string is not emoji-only.
func IsEmojiOnly(s string) bool {
	seen := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
		case r == 0x200D, r == 0x20E3, r >= 0xFE00 && r <= 0xFE0F:
		case r >= 0x1F3FB && r <= 0x1F3FF:
		case r >= 0xE0020 && r <= 0xE007F:
		case unicode.Is(unicode.So, r):
			seen = true
		default:
			return false
		}
	}
	return seen
}
