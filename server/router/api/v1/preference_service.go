package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	serviceerrors "github.com/hrygo/homepref/server/internal/errors"
	"github.com/hrygo/homepref/server/service/preference"
)

// ListPreferences returns every stored preference.
// GET /
func (s *APIV1Service) ListPreferences(c echo.Context) error {
	list, err := s.PreferenceService.ListAll(c.Request().Context())
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// CreateOrReplacePreference creates the user's preference or replaces the
// existing one.
// POST /
func (s *APIV1Service) CreateOrReplacePreference(c echo.Context) error {
	var req preference.CreatePreferenceRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}
	result, err := s.PreferenceService.CreateOrReplace(c.Request().Context(), &req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetPreference returns the preference stored for the user in the path.
// GET /:userId
func (s *APIV1Service) GetPreference(c echo.Context) error {
	result, err := s.PreferenceService.GetByUser(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// UpdatePreference applies a partial update.
// PATCH /:userId
func (s *APIV1Service) UpdatePreference(c echo.Context) error {
	var req preference.UpdatePreferenceRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}
	result, err := s.PreferenceService.PartialUpdate(c.Request().Context(), c.Param("userId"), &req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// DeletePreference removes the user's preference. Deleting a missing
// preference also succeeds.
// DELETE /:userId
func (s *APIV1Service) DeletePreference(c echo.Context) error {
	if err := s.PreferenceService.Delete(c.Request().Context(), c.Param("userId")); err != nil {
		return WriteError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// decodeBody decodes the JSON body into v. When it reports false the error
// response has already been written: 400 for a missing or malformed body,
// 422 for a well-formed body whose values have the wrong type.
func decodeBody(c echo.Context, v any) (bool, error) {
	if c.Request().ContentLength == 0 {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:   string(serviceerrors.ErrCodeInvalidArgument),
			Detail: "request body is required",
		})
	}
	err := c.Echo().JSONSerializer.Deserialize(c, v)
	if err == nil {
		return true, nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		detail := "invalid value type"
		if typeErr.Field != "" {
			detail = typeErr.Field + ": expected " + typeErr.Type.String()
		}
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:   string(serviceerrors.ErrCodeInvalidArgument),
			Detail: detail,
		})
	}
	return false, c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:   string(serviceerrors.ErrCodeInvalidArgument),
		Detail: "malformed JSON body",
	})
}
