// Package config loads the process-wide configuration from environment
// variables. A Config is read-only after Load returns and is passed by
// reference into every task loop and HTTP handler — there is no global or
// thread-local configuration state.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Service holds the remote endpoint configuration for one named compute
// client, keyed by lowercase service name in Config.Services.
type Service struct {
	UploadURL    string
	DownloadURL  string
	RunsPerUser  int
}

// Config is the fully resolved, immutable configuration for either role.
type Config struct {
	DBPath    string
	DataPath  string
	MaxAge    time.Duration
	Services  map[string]Service
}

const (
	defaultMaxAgeSeconds = 864000 // 10 days
	defaultRunsPerUser   = 5
)

// Load builds a Config from the process environment. Missing DB_PATH and
// DATA_PATH fall back to defaults under the current working directory and
// emit a warning via the supplied warn func (nil-safe: pass nil to discard).
func Load(warn func(msg string)) Config {
	if warn == nil {
		warn = func(string) {}
	}

	cwd, _ := os.Getwd()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = cwd + "/db.sqlite"
		warn("DB_PATH not set, using default: " + dbPath)
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = cwd + "/data"
		warn("DATA_PATH not set, using default: " + dataPath)
	}

	maxAge := time.Duration(defaultMaxAgeSeconds) * time.Second
	if raw := os.Getenv("MAX_AGE"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil {
			maxAge = time.Duration(secs) * time.Second
		} else {
			warn("MAX_AGE is not a valid integer, using default: " + strconv.Itoa(defaultMaxAgeSeconds))
		}
	}

	return Config{
		DBPath:   dbPath,
		DataPath: dataPath,
		MaxAge:   maxAge,
		Services: loadServices(os.Environ()),
	}
}

// loadServices scans the environment for SERVICE_<NAME>_{UPLOAD_URL,
// DOWNLOAD_URL,RUNS_PER_USER} variables and assembles the service table.
// Malformed names (fewer than three underscore-segments, or an unrecognized
// trailing token) are silently ignored, per the configuration surface in §6.
func loadServices(environ []string) map[string]Service {
	services := make(map[string]Service)

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "SERVICE_") {
			continue
		}

		rest := strings.TrimPrefix(key, "SERVICE_")
		parts := strings.Split(rest, "_")
		if len(parts) < 2 {
			continue
		}

		// The trailing one or two tokens identify the field; everything
		// before that is the (possibly underscore-containing) service name.
		field, nameParts, ok := splitField(parts)
		if !ok {
			continue
		}
		name := strings.ToLower(strings.Join(nameParts, "_"))
		if name == "" {
			continue
		}

		svc := services[name]
		switch field {
		case "upload_url":
			svc.UploadURL = value
		case "download_url":
			svc.DownloadURL = value
		case "runs_per_user":
			n, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			svc.RunsPerUser = n
		default:
			continue
		}
		services[name] = svc
	}

	for name, svc := range services {
		if svc.RunsPerUser == 0 {
			svc.RunsPerUser = defaultRunsPerUser
			services[name] = svc
		}
	}

	return services
}

// splitField recognizes the known trailing field tokens ("UPLOAD_URL",
// "DOWNLOAD_URL", "RUNS_PER_USER") against the underscore-split remainder of
// a SERVICE_<NAME>_<FIELD> variable name, returning the lowercase field key
// and the name segments that precede it.
func splitField(parts []string) (field string, nameParts []string, ok bool) {
	n := len(parts)
	switch {
	case n >= 3 && strings.EqualFold(parts[n-3], "RUNS") && strings.EqualFold(parts[n-2], "PER") && strings.EqualFold(parts[n-1], "USER"):
		return "runs_per_user", parts[:n-3], true
	case n >= 2 && strings.EqualFold(parts[n-2], "UPLOAD") && strings.EqualFold(parts[n-1], "URL"):
		return "upload_url", parts[:n-2], true
	case n >= 2 && strings.EqualFold(parts[n-2], "DOWNLOAD") && strings.EqualFold(parts[n-1], "URL"):
		return "download_url", parts[:n-2], true
	default:
		return "", nil, false
	}
}
