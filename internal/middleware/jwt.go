// internal/middleware/jwt.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"opslink/internal/models"
	"opslink/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token expiration time - 7 days
const tokenExpiration = 7 * 24 * time.Hour

// Claims represents the JWT claims for our application.
//
// TokenVersion is the session epoch the credential was issued under.
// Credentials minted before the field existed carry no claim, which
// decodes to 0 - the backward-compatibility epoch.
type Claims struct {
	UserID       uuid.UUID `json:"userId"`
	TokenVersion int       `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// UserLoader resolves an authenticated identity against the credential store.
type UserLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticator validates bearer credentials and yields the identity
// record for downstream authorization checks.
type Authenticator struct {
	secret []byte
	users  UserLoader
}

func NewAuthenticator(secret string, users UserLoader) *Authenticator {
	return &Authenticator{secret: []byte(secret), users: users}
}

// GenerateToken creates a new JWT for the given user, pinned to the
// user's current token version.
func (a *Authenticator) GenerateToken(user *models.User) (string, error) {
	expirationTime := time.Now().Add(tokenExpiration)

	claims := &Claims{
		UserID:       user.ID,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "opslink-api",
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken verifies the signature and expiry of the provided JWT
// and extracts its claims.
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return a.secret, nil
		},
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Authenticate resolves a bearer token to the identity record, with
// the password hash stripped.
//
//   - missing/malformed/invalid token  -> UNAUTHORIZED
//   - unknown identity                 -> UNAUTHORIZED
//   - stale token version              -> SESSION_EXPIRED
func (a *Authenticator) Authenticate(ctx context.Context, tokenString string) (*models.User, *utils.AppError) {
	claims, err := a.ValidateToken(tokenString)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrUnauthorized, "Invalid token", err)
	}

	user, err := a.users.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, utils.NewUnauthorizedError("unknown user")
	}

	// An absent tokenVersion claim decodes to 0, so pre-epoch tokens
	// stay valid exactly while the stored epoch is still 0.
	if claims.TokenVersion != user.TokenVersion {
		return nil, utils.NewAppError(utils.ErrSessionExpired,
			"Token expired due to password change", nil)
	}

	return user.Public(), nil
}

// Middleware validates the Authorization header and puts the
// authenticated user in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, utils.NewUnauthorizedError("missing bearer token"))
			return
		}

		user, appErr := a.Authenticate(r.Context(), tokenString)
		if appErr != nil {
			writeAuthError(w, appErr)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetUserInContext(r.Context(), user)))
	})
}

// Optional resolves the user when a valid token is present but lets
// anonymous requests through. Used by routes that are public for
// visitors and richer for the owner.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokenString, ok := bearerToken(r); ok {
			if user, appErr := a.Authenticate(r.Context(), tokenString); appErr == nil {
				r = r.WithContext(SetUserInContext(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, appErr *utils.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(utils.AppErrorToHTTPStatus(appErr.Code))
	fmt.Fprintf(w, "{\"error\":%q}", appErr.Message)
}

// Define a custom context key type to avoid collisions
type contextKey string

// UserKey is the key used to store the authenticated user in the context
const UserKey contextKey = "user"

// SetUserInContext saves the authenticated user in the request context
func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok
}
