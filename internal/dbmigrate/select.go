package dbmigrate

import (
	"errors"
	"strings"

	"github.com/fdg312/nutri-coach/internal/config"
)

var (
	ErrDirectURLRequired = errors.New("DATABASE_URL_DIRECT is required for DDL/migrations")
	ErrNoDatabaseURL     = errors.New("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
)

const pooledDDLWarning = "using pooled connection for DDL is not recommended; set DATABASE_URL_DIRECT"

type urlCandidate struct {
	env     string
	url     string
	warning string
}

// SelectDatabaseURL picks the URL migrations run against:
// DATABASE_URL_DIRECT, then DATABASE_URL, then DATABASE_URL_POOLED (with a warning).
// With requireDirect only DATABASE_URL_DIRECT is accepted (startup migrations).
func SelectDatabaseURL(cfg *config.Config, requireDirect bool) (dbURL string, source string, warning string, err error) {
	candidates := []urlCandidate{
		{env: "DATABASE_URL_DIRECT", url: cfg.DatabaseURLDirect},
	}
	if !requireDirect {
		candidates = append(candidates,
			urlCandidate{env: "DATABASE_URL", url: cfg.DatabaseURLRaw},
			urlCandidate{env: "DATABASE_URL_POOLED", url: cfg.DatabaseURLPooled, warning: pooledDDLWarning},
		)
	}

	for _, c := range candidates {
		if strings.TrimSpace(c.url) != "" {
			return c.url, c.env, c.warning, nil
		}
	}

	if requireDirect {
		return "", "", "", ErrDirectURLRequired
	}
	return "", "", "", ErrNoDatabaseURL
}
