package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-calendar/internal/model"
	"go-calendar/internal/util"
	"go-calendar/pkg/apierror"
)

const minPasswordLength = 8

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) error
}

type AuthService struct {
	users      userStore
	sessions   SessionStore
	issuer     *SessionIssuer
	audit      *AuditService
	bcryptCost int
}

func NewAuthService(users userStore, sessions SessionStore, issuer *SessionIssuer, audit *AuditService) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		issuer:     issuer,
		audit:      audit,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// SetBcryptCost lowers the hashing cost for tests.
func (s *AuthService) SetBcryptCost(cost int) {
	s.bcryptCost = cost
}

func (s *AuthService) Issuer() *SessionIssuer {
	return s.issuer
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, actor model.AuditActor) (model.AuthResult, error) {
	name, err := util.CleanText("name", req.Name, util.MaxNameLength, false)
	if err != nil {
		return model.AuthResult{}, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := req.Password

	if name == "" || email == "" || password == "" {
		return model.AuthResult{}, apierror.BadRequest("name, email and password are required", "")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.AuthResult{}, apierror.BadRequest("invalid email address", "email")
	}
	if len(password) < minPasswordLength {
		return model.AuthResult{}, apierror.BadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength), "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		actor.Email = email
		s.audit.Log(ctx, model.AuditActionRegister, actor, model.AuditStatusFailure, "", err.Error())
		return model.AuthResult{}, err
	}

	pair, err := s.issuer.Issue(ctx, user.ID, user.Email)
	if err != nil {
		return model.AuthResult{}, err
	}

	actor.UserID, actor.Email = user.ID, user.Email
	s.audit.Log(ctx, model.AuditActionRegister, actor, model.AuditStatusSuccess, "", "")

	return model.AuthResult{User: user.Public(), TokenPair: pair}, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string, actor model.AuditActor) (model.AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.AuthResult{}, apierror.BadRequest("email and password are required", "")
	}

	actor.Email = strings.ToLower(email)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		s.audit.Log(ctx, model.AuditActionLogin, actor, model.AuditStatusFailure, "", "unknown email")
		return model.AuthResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.AuthResult{}, err
	}

	actor.UserID = user.ID
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.audit.Log(ctx, model.AuditActionLogin, actor, model.AuditStatusFailure, "", "wrong password")
		return model.AuthResult{}, model.ErrInvalidCredentials
	}

	pair, err := s.issuer.Issue(ctx, user.ID, user.Email)
	if err != nil {
		return model.AuthResult{}, err
	}

	s.audit.Log(ctx, model.AuditActionLogin, actor, model.AuditStatusSuccess, "", "")
	return model.AuthResult{User: user.Public(), TokenPair: pair}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string, actor model.AuditActor) (model.TokenPair, error) {
	identity, pair, err := s.issuer.Refresh(ctx, refreshToken)
	if err != nil {
		s.audit.Log(ctx, model.AuditActionRefresh, actor, model.AuditStatusFailure, "", err.Error())
		return model.TokenPair{}, err
	}

	actor.UserID, actor.Email = identity.UserID, identity.Email
	s.audit.Log(ctx, model.AuditActionRefresh, actor, model.AuditStatusSuccess, "", "")
	return pair, nil
}

// EndSession clears the stored refresh token of identity. It is the
// server-side half of logout; the caller decides what a failure means.
func (s *AuthService) EndSession(ctx context.Context, identity model.Identity, actor model.AuditActor) error {
	actor.UserID, actor.Email = identity.UserID, identity.Email

	if err := s.sessions.ClearRefreshToken(ctx, identity.UserID); err != nil {
		s.audit.Log(ctx, model.AuditActionLogout, actor, model.AuditStatusFailure, "", err.Error())
		return err
	}

	s.audit.Log(ctx, model.AuditActionLogout, actor, model.AuditStatusSuccess, "", "")
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}
