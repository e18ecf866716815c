package deps

import (
	"time"

	"github.com/itsDongki/quicknotes/internal/devserver/store"
	"github.com/itsDongki/quicknotes/internal/logger"
)

// Deps is the dependency bundle passed to route registrars.
type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Store     store.Store
	JWTSecret []byte
	TokenTTL  time.Duration
}

// Now returns the injected clock, falling back to time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
