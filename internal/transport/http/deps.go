package http

import (
	"github.com/go-notification-api/internal/application/notification"
	"github.com/go-notification-api/internal/transport/http/handler"
	appmiddleware "github.com/go-notification-api/internal/transport/http/middleware"
)

// Deps holds everything the router needs. Verifier is optional; without it
// every request is anonymous.
type Deps struct {
	Notifications notification.Service
	Verifier      appmiddleware.TokenVerifier
	// Checks back the /health-check/ready action, keyed by dependency name.
	Checks map[string]handler.Check
}
