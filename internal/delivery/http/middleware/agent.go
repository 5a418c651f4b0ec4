package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/user/knowlife/internal/delivery/http/response"
)

// ReadyChecker reports whether a component can serve requests.
type ReadyChecker interface {
	IsReady() bool
}

// RequireAgent answers 409 Conflict while agent is not ready.
func RequireAgent(agent ReadyChecker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if agent == nil || !agent.IsReady() {
				response.Error(w, logger, http.StatusConflict, "Conflict",
					"No agent loaded. To continue processing, a trends agent needs to be loaded.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
