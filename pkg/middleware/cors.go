package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// dashboardMethods are the verbs the dashboard and the refresh webhook use.
// The API is read-only apart from PUT /api/view.
var dashboardMethods = []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodOptions}

// CORS allows the dashboard origins. Supabase clients send apikey and
// x-client-info alongside the bearer token.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   dashboardMethods,
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Apikey", "X-Client-Info"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler
}
