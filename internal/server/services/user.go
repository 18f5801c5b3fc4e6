package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/common"
	"github.com/csuite-pathway/alumniportal/internal/dbx"
	"github.com/csuite-pathway/alumniportal/internal/logging"
	"github.com/csuite-pathway/alumniportal/internal/server/allowlist"
	"github.com/csuite-pathway/alumniportal/internal/server/auth"
	"github.com/csuite-pathway/alumniportal/internal/server/config"
	"github.com/csuite-pathway/alumniportal/internal/server/mail"
	"github.com/csuite-pathway/alumniportal/internal/server/metrics"
	"github.com/csuite-pathway/alumniportal/internal/server/models"
	"github.com/csuite-pathway/alumniportal/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// RegistrationStatus tells the caller which state a successful
// registration left the account in.
type RegistrationStatus string

const (
	StatusPendingVerification RegistrationStatus = "pending_verification"
	StatusAutoVerified        RegistrationStatus = "auto_verified"
)

const (
	msgCheckEmail   = "Registration successful! Please check your email to verify your account."
	msgAutoVerified = "Registration successful! The verification email could not be sent, so your account was verified automatically. You can log in now."
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type RegisterResult struct {
	User    *models.User
	Status  RegistrationStatus
	Message string
}

// Session is an authenticated login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// hashPassword is a seam so tests can use a cheap bcrypt cost.
var hashPassword = func(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy spends the same bcrypt work as a real comparison so a login
// for an unknown email takes as long as one with a wrong password.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		h, _ := hashPassword("not-a-real-password")
		dummyHash = []byte(h)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// UserService implements the account lifecycle:
// Unregistered -> PendingVerification -> Verified, plus login and logout.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cfg         *config.Config
	policy      allowlist.Policy
	notifier    mail.Notifier
	revoker     auth.Revoker
	metrics     *metrics.Metrics
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, policy allowlist.Policy,
	notifier mail.Notifier, revoker auth.Revoker, mt *metrics.Metrics, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		cfg:         cfg,
		policy:      policy,
		notifier:    notifier,
		revoker:     revoker,
		metrics:     mt,
		log:         log.With("module", "users"),
	}
}

func validateAccount(first, last, email, password string) error {
	if err := required("first name", first); err != nil {
		return err
	}
	if err := required("last name", last); err != nil {
		return err
	}
	if err := validEmail(email); err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return nil
}

// Register creates a pending account for an authorized registrant and
// sends the verification link. When the mail cannot be sent and
// AllowInsecureAutoVerify is set, the account is verified on the spot.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = common.NormalizeEmail(in.Email)

	if err := validateAccount(in.FirstName, in.LastName, in.Email, in.Password); err != nil {
		s.metrics.Registration("invalid")
		return nil, err
	}

	existing, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email)
	switch {
	case err == nil && existing.IsVerified:
		s.metrics.Registration("duplicate")
		return nil, fmt.Errorf("%w: an account with this email already exists, please log in", common.ErrDuplicateAccount)
	case err == nil:
		s.metrics.Registration("duplicate")
		return nil, fmt.Errorf("%w: a registration for this email is awaiting verification, please check your inbox", common.ErrDuplicateAccount)
	case !errors.Is(err, common.ErrorNotFound):
		s.log.Error(ctx, "lookup existing account failed", "error", err)
		return nil, common.ErrorInternal
	}

	if err := s.policy.Authorize(ctx, allowlist.Registrant{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}); err != nil {
		if errors.Is(err, common.ErrNotAuthorized) {
			s.metrics.Registration("not_authorized")
			return nil, err
		}
		s.log.Error(ctx, "allow-list check failed", "error", err)
		return nil, common.ErrorInternal
	}

	token, err := common.MakeURLSafeToken(s.cfg.TokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Email:             in.Email,
		PasswordHash:      hash,
		VerificationToken: &token,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).Create(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			s.metrics.Registration("duplicate")
			return nil, fmt.Errorf("%w: an account with this email already exists", common.ErrDuplicateAccount)
		}
		s.log.Error(ctx, "create user failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	s.metrics.Registration("ok")

	if err := s.sendVerification(ctx, user, token); err != nil {
		s.log.Error(ctx, "verification mail not sent", "user_id", user.ID, "error", err)
		s.metrics.MailSend("error")

		if s.cfg.AllowInsecureAutoVerify {
			verified, err := s.consume(ctx, token)
			if err != nil {
				s.log.Error(ctx, "auto-verify failed", "user_id", user.ID, "error", err)
				return nil, common.ErrorInternal
			}
			s.log.Warn(ctx, "account auto-verified without email confirmation", "user_id", user.ID)
			return &RegisterResult{User: verified, Status: StatusAutoVerified, Message: msgAutoVerified}, nil
		}
	} else {
		s.metrics.MailSend("ok")
	}

	return &RegisterResult{User: user, Status: StatusPendingVerification, Message: msgCheckEmail}, nil
}

func (s *UserService) sendVerification(ctx context.Context, user *models.User, token string) error {
	msg, err := mail.VerificationMessage(user.Email, user.FirstName, s.cfg.VerificationLink(token))
	if err != nil {
		return err
	}
	return s.notifier.Send(ctx, msg)
}

// Verify consumes a verification token. The match-and-clear happens in one
// conditional update, so of two concurrent presentations only one succeeds;
// the other, like any unknown token, gets common.ErrInvalidToken.
func (s *UserService) Verify(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		s.metrics.Verification("invalid_token")
		return nil, common.ErrInvalidToken
	}

	user, err := s.consume(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.Verification("invalid_token")
			return nil, common.ErrInvalidToken
		}
		s.log.Error(ctx, "verify token failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.Verification("ok")
	s.log.Info(ctx, "email verified", "user_id", user.ID)
	return user, nil
}

func (s *UserService) consume(ctx context.Context, token string) (*models.User, error) {
	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).ConsumeVerificationToken(ctx, token)
		return err
	})
	return user, err
}

// Login checks credentials and opens a session. A wrong password and an
// unknown email both yield common.ErrInvalidCredentials after the same
// bcrypt work; common.ErrNotVerified is only reported once the password
// has matched.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = common.NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			compareDummy(password)
			s.metrics.Login("invalid_credentials")
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "lookup user failed", "error", err)
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.metrics.Login("invalid_credentials")
		return nil, common.ErrInvalidCredentials
	}

	if !user.IsVerified {
		s.metrics.Login("not_verified")
		return nil, fmt.Errorf("%w: please verify your email before logging in", common.ErrNotVerified)
	}

	token, claims, err := auth.GenerateToken(user.ID, []byte(s.cfg.SecretKey), s.cfg.SessionTTL)
	if err != nil {
		return nil, common.ErrorInternal
	}

	s.metrics.Login("ok")
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Authenticate resolves a session token to its verified user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(token, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.log.Error(ctx, "revocation lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if revoked {
		return nil, common.ErrSessionRevoked
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !user.IsVerified {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// Logout revokes the session until it would have expired.
func (s *UserService) Logout(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, []byte(s.cfg.SecretKey))
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil
		}
		return err
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.log.Error(ctx, "revoke session failed", "error", err)
		return common.ErrorInternal
	}
	return nil
}

// CreateAdmin bootstraps the first administrator. It refuses when any
// admin already exists.
func (s *UserService) CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = common.NormalizeEmail(in.Email)

	if err := validateAccount(in.FirstName, in.LastName, in.Email, in.Password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	admin := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		IsVerified:   true,
		IsAdmin:      true,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		exists, err := repo.HasAdmin(ctx)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrAdminExists
		}
		admin, err = repo.Create(ctx, admin)
		return err
	})
	switch {
	case err == nil:
		s.log.Info(ctx, "admin created", "user_id", admin.ID)
		return admin, nil
	case errors.Is(err, common.ErrAdminExists):
		return nil, err
	case errors.Is(err, common.ErrAlreadyExists):
		return nil, fmt.Errorf("%w: an account with this email already exists", common.ErrDuplicateAccount)
	default:
		s.log.Error(ctx, "create admin failed", "error", err)
		return nil, common.ErrorInternal
	}
}
