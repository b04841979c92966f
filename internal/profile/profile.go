package profile

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultCORSOrigins are the browser origins the hosted UI is served from.
var DefaultCORSOrigins = []string{
	"http://localhost:5000",
	"https://cloud-computing-ui.web.app",
	"https://cloud-computing-ui.firebaseapp.com",
}

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory, used for the default sqlite database file
	Data string
	// DSN points to where preferences are stored
	DSN string
	// Driver is the database driver (sqlite, postgres or mysql)
	Driver string
	// Version is the current version of server
	Version string

	// CORSOrigins is the allow-list of browser origins.
	CORSOrigins []string
	// RateLimit is the sustained per-client request rate (requests/second). Zero disables limiting.
	RateLimit float64
	// RateBurst is the per-client burst size.
	RateBurst int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// FromEnv applies the deployment environment variables the service has
// always honoured. They take precedence over flag and PREFERENCES_* values
// only when set.
//
//	PORT                                   listen port (Cloud Run)
//	DATABASE_URL                           full database URL, driver inferred from scheme
//	MYSQL_HOST, MYSQL_PORT, MYSQL_USER,
//	MYSQL_PASSWORD, MYSQL_DB               mysql connection when DATABASE_URL is unset
func (p *Profile) FromEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			p.Port = port
		} else {
			slog.Warn("ignoring invalid PORT", slog.String("value", v))
		}
	}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		driver, dsn, err := ParseDatabaseURL(databaseURL)
		if err != nil {
			slog.Warn("ignoring invalid DATABASE_URL", slog.String("error", err.Error()))
			return
		}
		p.Driver, p.DSN = driver, dsn
		return
	}

	if host := os.Getenv("MYSQL_HOST"); host != "" {
		p.Driver = "mysql"
		p.DSN = (&url.URL{
			Scheme: "mysql",
			User:   url.UserPassword(getEnvOrDefault("MYSQL_USER", "root"), os.Getenv("MYSQL_PASSWORD")),
			Host:   host + ":" + getEnvOrDefault("MYSQL_PORT", "3306"),
			Path:   "/" + getEnvOrDefault("MYSQL_DB", "preferences_db"),
		}).String()
	}
}

// ParseDatabaseURL maps a database URL onto a driver name and the DSN that
// driver expects. Postgres and mysql URLs are passed through unchanged (the
// mysql driver converts them itself); sqlite URLs are reduced to a file path.
func ParseDatabaseURL(raw string) (driver string, dsn string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to parse database url")
	}

	scheme := strings.ToLower(u.Scheme)
	if i := strings.Index(scheme, "+"); i >= 0 {
		scheme = scheme[:i]
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgres", raw, nil
	case "mysql":
		return "mysql", raw, nil
	case "sqlite", "sqlite3":
		// sqlite:///relative.db and sqlite:////abs/path.db
		path := strings.TrimPrefix(raw[len(u.Scheme)+len("://"):], "/")
		if path == "" {
			return "", "", errors.Errorf("sqlite url has no path: %s", raw)
		}
		return "sqlite", path, nil
	default:
		return "", "", errors.Errorf("unsupported database scheme %q", u.Scheme)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "prod"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Port <= 0 {
		p.Port = 8080
	}
	if len(p.CORSOrigins) == 0 {
		p.CORSOrigins = DefaultCORSOrigins
	}
	if p.RateLimit < 0 {
		return errors.Errorf("rate limit must not be negative: %v", p.RateLimit)
	}
	if p.RateLimit > 0 && p.RateBurst <= 0 {
		p.RateBurst = 1
	}

	// Only the default sqlite database lives in the data directory.
	if p.Driver != "sqlite" || p.DSN != "" {
		return nil
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir
	p.DSN = filepath.Join(dataDir, fmt.Sprintf("preferences_%s.db", p.Mode))
	return nil
}
