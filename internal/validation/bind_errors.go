package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"groupmanager/internal/apperror"
)

var registerOnce sync.Once

// RegisterBindingTagNames makes gin's validator report JSON field names so
// FromBindError can key messages the way clients sent them.
func RegisterBindingTagNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonTagName)
	})
}

func jsonTagName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// FromBindError converts an error returned by gin's ShouldBind* into a
// field-scoped ValidationError. Errors that are not about the payload shape
// are returned unchanged.
func FromBindError(err error) error {
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := apperror.NewValidationError()
		for _, fe := range ve {
			out.Add(fieldPath(fe), fieldError(fe))
		}
		return out
	}

	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		out := apperror.NewValidationError()
		field := te.Field
		if field == "" {
			field = "body"
		}
		out.Add(field, fmt.Sprintf("O campo %s possui um tipo inválido.", field))
		return out
	}

	var se *json.SyntaxError
	if errors.As(err, &se) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		out := apperror.NewValidationError()
		out.Add("body", "O corpo da requisição é inválido.")
		return out
	}
	return err
}

// fieldPath turns "CreateMembersRequest.members[2].email" into "members.2.email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return indexPattern.ReplaceAllString(ns, ".$1")
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo %s é obrigatório.", field)
	case "email":
		return "Email invalido."
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("O campo %s deve ter no mínimo %s itens.", field, fe.Param())
		}
		return fmt.Sprintf("O campo %s deve ter no mínimo %s caracteres.", field, fe.Param())
	case "max":
		return fmt.Sprintf("O campo %s deve ter no máximo %s caracteres.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("O campo %s deve ser um dos valores: %s.", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("O campo %s deve ser uma data no formato AAAA-MM-DD.", field)
	case "uuid":
		return fmt.Sprintf("O campo %s deve ser um UUID válido.", field)
	default:
		return fmt.Sprintf("O campo %s é inválido.", field)
	}
}
