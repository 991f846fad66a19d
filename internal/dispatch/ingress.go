package dispatch

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

var (
	errMissingRegion      = errors.New("alert region required")
	errMissingType        = errors.New("alert type required")
	errMissingSeverity    = errors.New("alert severity required")
	errMissingTitle       = errors.New("alert title required")
	errMissingDescription = errors.New("alert description required")
)

// Ingress is the single entry point invoked by the alert-creation
// workflow after an alert record has been durably persisted. Broadcast
// is strictly best-effort: a malformed alert is logged and dropped, and
// no failure here ever reaches the caller.
type Ingress struct {
	router *Router
	logger zerolog.Logger
}

// NewIngress creates the ingress adapter in front of the router.
func NewIngress(router *Router, logger zerolog.Logger) *Ingress {
	return &Ingress{
		router: router,
		logger: logger.With().Str("component", "Ingress").Logger(),
	}
}

// OnAlertCreated validates the alert shape and hands it to the router.
func (i *Ingress) OnAlertCreated(alert protocol.Alert) {
	if err := validateAlert(alert); err != nil {
		i.logger.Warn().Err(err).Str("alert", alert.ID).Msg("Dropping malformed alert")
		return
	}
	i.router.Route(alert)
}

func validateAlert(alert protocol.Alert) error {
	switch {
	case strings.TrimSpace(alert.Region) == "":
		return errMissingRegion
	case strings.TrimSpace(alert.Type) == "":
		return errMissingType
	case strings.TrimSpace(alert.Severity) == "":
		return errMissingSeverity
	case strings.TrimSpace(alert.Title) == "":
		return errMissingTitle
	case strings.TrimSpace(alert.Description) == "":
		return errMissingDescription
	}
	return nil
}
