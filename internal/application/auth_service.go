package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/grymm/barber-auth/internal/domain/entity"
	repo "github.com/grymm/barber-auth/internal/domain/repository"
	"github.com/grymm/barber-auth/pkg/helpers"
	"github.com/grymm/barber-auth/pkg/mailer"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidCode  = errors.New("invalid or already used code")
	ErrCodeExpired  = errors.New("code expired")
	ErrEmailTaken   = errors.New("user with this email already exists")
	ErrSendFailure  = errors.New("failed to send otp email")
	ErrInvalidToken = errors.New("invalid refresh token")
	ErrUserNotFound = errors.New("user not found")
)

// AuthService drives the OTP lifecycle: issuing codes, verifying them
// exactly once inside the validity window, resolving the identity behind a
// verified email and minting the token pair.
type AuthService struct {
	Users      repo.UserRepository
	OTPs       repo.OTPRepository
	JWT        *helpers.JWTManager
	Dispatcher mailer.Dispatcher
	Redis      *redis.Client
	Logger     *logrus.Logger
	ES         *elasticsearch.Client
	ESIndex    string

	// OTPExpiry is the validity window measured from issuance.
	OTPExpiry time.Duration
}

func NewAuthService(users repo.UserRepository, otps repo.OTPRepository, jwt *helpers.JWTManager, d mailer.Dispatcher, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esIndex string, otpExpiry time.Duration) *AuthService {
	if otpExpiry <= 0 {
		otpExpiry = 5 * time.Minute
	}
	return &AuthService{
		Users:      users,
		OTPs:       otps,
		JWT:        jwt,
		Dispatcher: d,
		Redis:      rdb,
		Logger:     logger,
		ES:         es,
		ESIndex:    esIndex,
		OTPExpiry:  otpExpiry,
	}
}

// RequestCode generates a fresh code, records it in the ledger and hands it
// to the dispatcher. The record is committed before dispatch is attempted,
// so a delivery failure never rolls it back: the code stays consumable
// until it expires. Outstanding codes for the same email are unaffected.
func (s *AuthService) RequestCode(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingField
	}

	code, err := helpers.GenOTPCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	if _, err := s.OTPs.Issue(ctx, email, code); err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}

	if err := s.Dispatcher.SendOTP(ctx, email, code); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email", email).Error("otp dispatch failed")
		}
		return fmt.Errorf("%w: %v", ErrSendFailure, err)
	}

	if s.Logger != nil {
		s.Logger.WithField("email", email).Info("otp issued")
	}
	return nil
}

// VerifyResult is what a successful verification returns to the boundary.
type VerifyResult struct {
	User *entity.User
	Pair TokenPair
}

// Verify validates a submitted (email, code) pair and resolves the identity
// behind it. The matched record is consumed in the valid AND the expired
// path: once looked up as active, a code is burned no matter the outcome,
// so it can never be replayed. There is no rollback if identity resolution
// or token minting fails afterwards.
func (s *AuthService) Verify(ctx context.Context, email, code, requestedRole string) (*VerifyResult, error) {
	if email == "" || code == "" {
		return nil, ErrMissingField
	}

	role := entity.Role(requestedRole)
	if requestedRole != "" && !role.Valid() {
		return nil, ErrInvalidRole
	}

	rec, err := s.OTPs.FindActive(ctx, email, code)
	if err != nil {
		return nil, fmt.Errorf("lookup otp: %w", err)
	}
	if rec == nil {
		return nil, ErrInvalidCode
	}

	if time.Now().After(rec.ExpiresAt(s.OTPExpiry)) {
		if _, err := s.OTPs.MarkConsumed(ctx, rec.ID); err != nil {
			return nil, fmt.Errorf("consume expired otp: %w", err)
		}
		return nil, ErrCodeExpired
	}

	won, err := s.OTPs.MarkConsumed(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	if !won {
		// A concurrent verify consumed the record between lookup and here.
		return nil, ErrInvalidCode
	}

	u, err := s.resolveIdentity(ctx, email, requestedRole != "", role)
	if err != nil {
		return nil, err
	}

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"email": u.Email, "role": u.Role}).Info("otp verified")
	}
	return &VerifyResult{User: u, Pair: pair}, nil
}

// resolveIdentity finds, creates or promotes the identity for a verified
// email. Creation defaults to customer unless a role was requested; the only
// automatic role transition is customer->barber when barber was requested.
func (s *AuthService) resolveIdentity(ctx context.Context, email string, roleRequested bool, role entity.Role) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if u == nil {
		createRole := entity.RoleCustomer
		if roleRequested {
			createRole = role
		}
		u, err = s.Users.Create(ctx, email, createRole)
		if errors.Is(err, repo.ErrDuplicateEmail) {
			// Lost a first-verification race; the other request created it.
			u, err = s.Users.GetByEmail(ctx, email)
		}
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		s.indexUser(ctx, u)
		return u, nil
	}

	if roleRequested && role == entity.RoleBarber && u.Role == entity.RoleCustomer {
		if err := s.Users.UpdateRole(ctx, u.ID, entity.RoleBarber); err != nil {
			return nil, fmt.Errorf("promote user: %w", err)
		}
		u.Role = entity.RoleBarber
		s.indexUser(ctx, u)
	}
	return u, nil
}

// CreateBarber provisions a barber identity with no credentials; it
// authenticates later through the OTP flow like everyone else. Unlike the
// verification path this never promotes an existing identity.
func (s *AuthService) CreateBarber(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, ErrMissingField
	}
	u, err := s.Users.Create(ctx, email, entity.RoleBarber)
	if errors.Is(err, repo.ErrDuplicateEmail) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create barber: %w", err)
	}
	s.indexUser(ctx, u)
	if s.Logger != nil {
		s.Logger.WithField("email", u.Email).Info("barber provisioned")
	}
	return u, nil
}
