package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Claims is the subset of a Supabase access token the service uses
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type contextKey string

const UserContextKey contextKey = "user"

// Options configures token verification
type Options struct {
	// SkipAuth bypasses authentication entirely (local development)
	SkipAuth bool
	// JWTSecret verifies HS256 tokens signed by Supabase
	JWTSecret string
	// OIDCIssuer enables JWKS verification of asymmetric tokens
	OIDCIssuer string
	// AllowUnverified parses tokens without checking the signature
	AllowUnverified bool
}

// Authenticator validates bearer tokens on incoming requests
type Authenticator struct {
	opts   Options
	logger zerolog.Logger

	jwksOnce sync.Once
	jwks     keyfunc.Keyfunc
	jwksErr  error
}

// New creates an Authenticator
func New(opts Options, logger zerolog.Logger) *Authenticator {
	return &Authenticator{opts: opts, logger: logger}
}

// jwksURL returns the Supabase JWKS endpoint for the issuer
func jwksURL(issuer string) string {
	return strings.TrimSuffix(issuer, "/") + "/.well-known/jwks.json"
}

func (a *Authenticator) keyfunc() (jwt.Keyfunc, error) {
	a.jwksOnce.Do(func() {
		url := jwksURL(a.opts.OIDCIssuer)
		a.logger.Info().Str("url", url).Msg("fetching JWKS")
		a.jwks, a.jwksErr = keyfunc.NewDefault([]string{url})
	})
	if a.jwksErr != nil {
		return nil, fmt.Errorf("failed to create keyfunc: %w", a.jwksErr)
	}
	return a.jwks.Keyfunc, nil
}

// Middleware validates JWT tokens on protected routes
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.opts.SkipAuth {
			a.logger.Debug().Msg("SKIP_AUTH enabled - bypassing authentication")
			ctx := context.WithValue(r.Context(), UserContextKey, &Claims{
				Email: "dev@eprosys.local",
				Role:  "admin",
			})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		tokenString := extractToken(r)
		if tokenString == "" {
			a.logger.Warn().Str("path", r.URL.Path).Msg("missing authorization token")
			http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
			return
		}

		claims, err := a.validateToken(tokenString)
		if err != nil {
			a.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("token validation failed")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		a.logger.Debug().Str("email", claims.Email).Str("role", claims.Role).Msg("user authenticated")

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken gets the token from Authorization header or query parameter
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString != authHeader {
			return tokenString
		}
	}

	// browsers cannot set headers on WebSocket upgrades
	return r.URL.Query().Get("token")
}

func (a *Authenticator) validateToken(tokenString string) (*Claims, error) {
	var token *jwt.Token
	var err error

	switch {
	case a.opts.JWTSecret != "":
		token, err = jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
			return []byte(a.opts.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return nil, fmt.Errorf("token verification failed: %w", err)
		}

	case a.opts.OIDCIssuer != "":
		kf, kerr := a.keyfunc()
		if kerr != nil {
			return nil, kerr
		}
		token, err = jwt.Parse(tokenString, kf, jwt.WithValidMethods([]string{"RS256", "ES256"}))
		if err != nil {
			return nil, fmt.Errorf("token verification failed: %w", err)
		}

	case a.opts.AllowUnverified:
		a.logger.Warn().Msg("JWT signature verification disabled (development mode)")
		token, _, err = jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
		if err != nil {
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}

	default:
		return nil, errors.New("no token verification configured")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	claims := &Claims{Role: extractRole(mapClaims)}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Subject = sub
	}

	// verified parsers check exp themselves
	if a.opts.AllowUnverified && a.opts.JWTSecret == "" && a.opts.OIDCIssuer == "" {
		if exp, ok := mapClaims["exp"].(float64); ok {
			expTime := time.Unix(int64(exp), 0)
			claims.ExpiresAt = jwt.NewNumericDate(expTime)
			if expTime.Before(time.Now()) {
				return nil, fmt.Errorf("token expired")
			}
		}
	}

	return claims, nil
}

// extractRole prefers the application role in app_metadata over the
// Postgres role Supabase puts in the top-level claim.
func extractRole(mapClaims jwt.MapClaims) string {
	if meta, ok := mapClaims["app_metadata"].(map[string]interface{}); ok {
		if role, ok := meta["role"].(string); ok && role != "" {
			return role
		}
	}
	if role, ok := mapClaims["role"].(string); ok && role != "" {
		return role
	}
	return "viewer"
}

// GetClaims retrieves user claims from request context
func GetClaims(ctx context.Context) *Claims {
	claims, _ := ctx.Value(UserContextKey).(*Claims)
	return claims
}
