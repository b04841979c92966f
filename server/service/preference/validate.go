package preference

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hrygo/homepref/internal/optional"
	serviceerrors "github.com/hrygo/homepref/server/internal/errors"
)

const userIDRule = "required,max=36,printascii"

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names, not Go field names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Validate the carried value; absent and null fields are skipped by
	// omitempty.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		f, ok := field.Interface().(optional.Field[int32])
		if !ok || !f.Set || f.Null {
			return nil
		}
		return f.Value
	}, optional.Field[int32]{})

	return v
}

func (s *service) validateStruct(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return invalidArgument(err)
	}
	return nil
}

func (s *service) validateUserID(userID string) error {
	if err := s.validate.Var(userID, userIDRule); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return serviceerrors.InvalidArgument("user_id: " + describe(validationErrs[0]))
		}
		return serviceerrors.InvalidArgument(err.Error())
	}
	return nil
}

func invalidArgument(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return serviceerrors.Wrap(err, serviceerrors.ErrCodeInvalidArgument, "invalid request")
	}
	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		messages = append(messages, fieldErr.Field()+": "+describe(fieldErr))
	}
	return serviceerrors.InvalidArgument(strings.Join(messages, "; "))
}

func describe(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "field required"
	case "min":
		return fmt.Sprintf("must be greater than or equal to %s", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fieldErr.Param())
	case "printascii":
		return "must contain printable ASCII characters only"
	default:
		return fmt.Sprintf("failed on the %q rule", fieldErr.Tag())
	}
}
