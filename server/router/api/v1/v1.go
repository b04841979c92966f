package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/homepref/internal/profile"
	serviceerrors "github.com/hrygo/homepref/server/internal/errors"
	"github.com/hrygo/homepref/server/internal/observability"
	"github.com/hrygo/homepref/server/service/preference"
	"github.com/hrygo/homepref/store"
)

type APIV1Service struct {
	Profile           *profile.Profile
	Store             *store.Store
	PreferenceService preference.Service
	Metrics           *observability.Metrics

	// resolveIP returns the host address reported by the health check.
	resolveIP func() string
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, metrics *observability.Metrics) *APIV1Service {
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}
	return &APIV1Service{
		Profile:           profile,
		Store:             store,
		PreferenceService: preference.NewService(store, slog.Default()),
		Metrics:           metrics,
		resolveIP:         hostIPAddress,
	}
}

// RegisterRoutes mounts the preference, health and metrics endpoints.
// Static routes win over "/:userId", so a user literally named "health"
// cannot be addressed by path.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/", s.ListPreferences)
	echoServer.POST("/", s.CreateOrReplacePreference)
	echoServer.GET("/:userId", s.GetPreference)
	echoServer.PATCH("/:userId", s.UpdatePreference)
	echoServer.DELETE("/:userId", s.DeletePreference)

	echoServer.GET("/health", s.GetHealth)
	echoServer.GET("/health/:pathEcho", s.GetHealth)

	echoServer.GET("/system/metrics/overview", s.GetMetricsOverview)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func httpStatus(code serviceerrors.ErrorCode) int {
	switch code {
	case serviceerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case serviceerrors.ErrCodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case serviceerrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as an ErrorResponse. Causes are logged upstream and
// never included in the body. The server also hands it to the rate limiter.
func WriteError(c echo.Context, err error) error {
	code := serviceerrors.GetCodeFromError(err, serviceerrors.ErrCodeInternal)
	detail := "Internal server error"
	var serviceErr *serviceerrors.ServiceError
	if errors.As(err, &serviceErr) {
		detail = serviceErr.Message
	} else {
		slog.Error("unhandled error", slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return c.JSON(httpStatus(code), ErrorResponse{Code: string(code), Detail: detail})
}
