package v1

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        int     `json:"status"`
	StatusMessage string  `json:"status_message"`
	Timestamp     string  `json:"timestamp"`
	IPAddress     string  `json:"ip_address"`
	Echo          *string `json:"echo"`
	PathEcho      *string `json:"path_echo"`
}

// GetHealth reports liveness and echoes the optional query and path values.
// GET /health, GET /health/:pathEcho
func (s *APIV1Service) GetHealth(c echo.Context) error {
	response := HealthResponse{
		Status:        http.StatusOK,
		StatusMessage: "OK",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		IPAddress:     s.resolveIP(),
	}
	if c.QueryParams().Has("echo") {
		v := c.QueryParam("echo")
		response.Echo = &v
	}
	if v := c.Param("pathEcho"); v != "" {
		response.PathEcho = &v
	}
	return c.JSON(http.StatusOK, response)
}

// hostIPAddress resolves the machine's hostname to its first IPv4 address.
func hostIPAddress() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "127.0.0.1"
	}
	ips, err := net.LookupIP(hostname)
	if err != nil {
		return "127.0.0.1"
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return "127.0.0.1"
}
