package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/poradna-dev/poradna/shared/domain"
	jwt_internal "github.com/poradna-dev/poradna/shared/jwt"
	"github.com/poradna-dev/poradna/shared/logger"
	"github.com/poradna-dev/poradna/shared/utils"
)

// UserSyncer records the user described by a token and returns the stored
// account. The stored role wins unless the token itself grants admin.
type UserSyncer interface {
	Sync(ctx context.Context, user domain.User) (domain.User, error)
}

// Key to store the user claims in the request context
type key int

const UserClaimsKey key = 0

const accessTokenCookie = "accessToken"

type Auth struct {
	jwtService    jwt_internal.JwtService
	users         UserSyncer
	secureCookies bool
}

// NewAuth creates auth middleware. users may be nil, then token claims are
// taken as is.
func NewAuth(jwtService jwt_internal.JwtService, users UserSyncer, secureCookies bool) *Auth {
	return &Auth{
		jwtService:    jwtService,
		users:         users,
		secureCookies: secureCookies,
	}
}

// NeedAuth returns middleware that requires authentication
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(false)
}

// AdminOnly returns middleware that requires admin authentication
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return a.auth(true)
}

// OptionalAuth populates the user context if the token is valid, but doesn't require auth
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := a.extractUser(r)
			if user != nil {
				ctx := context.WithValue(r.Context(), UserClaimsKey, user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return ""
}

func (a *Auth) extractUser(r *http.Request) (*domain.User, error) {
	tokenString := tokenFromRequest(r)
	if tokenString == "" {
		return nil, errNoToken
	}

	claims, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}
	user := claims.User()

	if a.users != nil {
		stored, err := a.users.Sync(r.Context(), user)
		if err != nil {
			logger.Log.Error("failed to sync user", "uid", user.Id, "error", err)
			return nil, errSync
		}
		if claims.Admin {
			stored.Role = domain.RoleAdmin
		}
		user = stored
	}

	return &user, nil
}

var (
	errNoToken = errorString("no token")
	errSync    = errorString("user sync failed")
)

type errorString string

func (e errorString) Error() string { return string(e) }

func (a *Auth) auth(adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.extractUser(r)
			if err != nil {
				switch err {
				case errNoToken:
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
				case errSync:
					http.Error(w, "Internal error", http.StatusInternalServerError)
				default:
					a.clearCookie(w)
					utils.WriteErrorAndStatusCode(w, err)
				}
				return
			}

			if adminOnly && !user.IsAdmin() {
				http.Error(w, "Access denied. Only for admin", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clearCookie drops a rejected token so browsers go back to the auth service.
func (a *Auth) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     accessTokenCookie,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetUserFromContext retrieves the user from the context
func GetUserFromContext(r *http.Request) *domain.User {
	user, ok := r.Context().Value(UserClaimsKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}
