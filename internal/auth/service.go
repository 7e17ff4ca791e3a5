// internal/auth/service.go
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"opslink/internal/models"
	"opslink/internal/tokencache"
	"opslink/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
	pairingCodeTTL       = 5 * time.Minute
	bcryptCost           = 10
)

// UserStore is the credential store surface. Implemented by
// database.MongoDB.
type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByDiscordUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByDiscordID(ctx context.Context, discordUserID string) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
}

// Mailer delivers verification and reset tokens out of band. Email
// failures propagate to the caller, unlike listing notifications.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, verifyURL string) error
	SendPasswordResetEmail(ctx context.Context, to, resetURL string) error
}

// TokenIssuer mints bearer credentials pinned to the user's current
// token version. Implemented by middleware.Authenticator.
type TokenIssuer interface {
	GenerateToken(user *models.User) (string, error)
}

// Service implements the credential lifecycle: register, verify,
// login, password reset and cross-device pairing.
type Service struct {
	users   UserStore
	mailer  Mailer
	issuer  TokenIssuer
	pairing *tokencache.Cache

	publicBaseURL string
}

func NewService(users UserStore, mailer Mailer, issuer TokenIssuer, pairing *tokencache.Cache, publicBaseURL string) *Service {
	return &Service{
		users:         users,
		mailer:        mailer,
		issuer:        issuer,
		pairing:       pairing,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// RegisterRequest carries the signup fields.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	DiscordUsername string `json:"discordUsername"`
	DiscordUserID   string `json:"discordUserID"`
	DiscordTag      string `json:"discordTag"`
}

// Register creates an unverified account and emails a single-use
// verification token. The duplicate checks run independently, in
// order, so the caller learns exactly which field collided.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.DiscordUsername = strings.TrimSpace(req.DiscordUsername)
	req.DiscordUserID = strings.TrimSpace(req.DiscordUserID)
	if req.Email == "" || req.Password == "" || req.DiscordUsername == "" || req.DiscordUserID == "" {
		return utils.NewValidationError("missing required fields")
	}

	if err := s.checkNotTaken(ctx, func() (*models.User, error) {
		return s.users.GetUserByEmail(ctx, req.Email)
	}, "email"); err != nil {
		return err
	}
	if err := s.checkNotTaken(ctx, func() (*models.User, error) {
		return s.users.GetUserByDiscordUsername(ctx, req.DiscordUsername)
	}, "Discord username"); err != nil {
		return err
	}
	if err := s.checkNotTaken(ctx, func() (*models.User, error) {
		return s.users.GetUserByDiscordID(ctx, req.DiscordUserID)
	}, "Discord ID"); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return err
	}

	token, err := randomToken()
	if err != nil {
		return err
	}

	now := time.Now()
	user := &models.User{
		ID:                       uuid.New(),
		Email:                    req.Email,
		HashedPassword:           string(hashed),
		DiscordUsername:          req.DiscordUsername,
		DiscordUserID:            req.DiscordUserID,
		DiscordTag:               req.DiscordTag,
		Role:                     models.RoleUser,
		IsVerified:               false,
		EmailVerificationToken:   token,
		EmailVerificationExpires: now.Add(verificationTokenTTL),
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.users.SaveUser(ctx, user); err != nil {
		return err
	}

	// The account is persisted either way; a failed delivery fails the
	// request so the caller can retry via resend-verification.
	return s.mailer.SendVerificationEmail(ctx, user.Email, s.verifyURL(token))
}

func (s *Service) checkNotTaken(ctx context.Context, lookup func() (*models.User, error), field string) error {
	_, err := lookup()
	if err == nil {
		return utils.NewDuplicateError(field)
	}
	if !utils.IsErrorCode(err, utils.ErrUserNotFound) {
		return err
	}
	return nil
}

// Verify marks the account holding an unexpired matching token as
// verified and clears the token/expiry pair.
func (s *Service) Verify(ctx context.Context, token string) error {
	if token == "" {
		return utils.NewValidationError("token is required")
	}

	user, err := s.users.GetUserByVerificationToken(ctx, token)
	if err != nil {
		return err
	}

	user.IsVerified = true
	user.EmailVerificationToken = ""
	user.EmailVerificationExpires = time.Time{}
	return s.users.SaveUser(ctx, user)
}

// ResendVerification issues a fresh verification token for an
// unverified account.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return utils.NewValidationError("account is already verified")
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	user.EmailVerificationToken = token
	user.EmailVerificationExpires = time.Now().Add(verificationTokenTTL)

	if err := s.users.SaveUser(ctx, user); err != nil {
		return err
	}
	return s.mailer.SendVerificationEmail(ctx, user.Email, s.verifyURL(token))
}

// Login checks the credentials and issues a bearer token pinned to the
// user's current token version. Unknown email and wrong password
// produce the same error so accounts cannot be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return "", nil, utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil)
	}
	if !user.IsVerified {
		return "", nil, utils.NewAppError(utils.ErrUnverified, "Verify your email before logging in", nil)
	}

	token, err := s.issuer.GenerateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user.Public(), nil
}

// RequestPasswordReset issues a single-use reset token and emails it.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	user.PasswordResetToken = token
	user.PasswordResetExpires = time.Now().Add(resetTokenTTL)

	if err := s.users.SaveUser(ctx, user); err != nil {
		return err
	}
	return s.mailer.SendPasswordResetEmail(ctx, user.Email, s.resetURL(token))
}

// ResetPassword replaces the password hash, clears the reset token and
// increments the token version - invalidating every credential issued
// before this point. This is the only session-revocation mechanism;
// there is no explicit logout.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return utils.NewValidationError("a new password is required")
	}

	user, err := s.users.GetUserByResetToken(ctx, token)
	if err != nil {
		return utils.NewValidationError("invalid or expired reset token")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}

	user.HashedPassword = string(hashed)
	user.PasswordResetToken = ""
	user.PasswordResetExpires = time.Time{}
	user.TokenVersion++

	return s.users.SaveUser(ctx, user)
}

// NewPairingCode mints a short-lived single-use code an authenticated
// device can hand to another device for login.
func (s *Service) NewPairingCode(user *models.User) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := hex.EncodeToString(buf)
	s.pairing.Put("pair:"+code, user.ID.String(), pairingCodeTTL)
	return code, nil
}

// ExchangePairingCode trades a valid pairing code for a fresh bearer
// token. Codes are single-use.
func (s *Service) ExchangePairingCode(ctx context.Context, code string) (string, *models.User, error) {
	userIDStr, ok := s.pairing.Take("pair:" + code)
	if !ok {
		return "", nil, utils.NewValidationError("invalid or expired pairing code")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return "", nil, fmt.Errorf("invalid user ID in pairing cache: %v", err)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	token, err := s.issuer.GenerateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user.Public(), nil
}

func (s *Service) verifyURL(token string) string {
	return s.publicBaseURL + "/api/verify-email?token=" + token
}

func (s *Service) resetURL(token string) string {
	return s.publicBaseURL + "/reset-password?token=" + token
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
