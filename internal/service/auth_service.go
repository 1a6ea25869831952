package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"triagedesk/internal/apperr"
	"triagedesk/internal/model"
	"triagedesk/pkg/util"
)

type AgentStore interface {
	Create(ctx context.Context, a *model.Agent) error
	FindByEmail(ctx context.Context, email string) (*model.Agent, error)
}

// AuthService manages agent accounts. The JWT it issues is the explicit
// agent identity every claim, unclaim and reply carries.
type AuthService struct {
	agents    AgentStore
	jwtSecret string
}

func NewAuthService(agents AgentStore, jwtSecret string) *AuthService {
	return &AuthService{
		agents:    agents,
		jwtSecret: jwtSecret,
	}
}

// Register creates a new agent account.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*model.Agent, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil, apperr.Validation("email and password are required")
	}

	existing, err := s.agents.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Storage("failed to look up agent", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, apperr.Storage("failed to hash password", err)
	}

	if name == "" {
		name = email
	}
	a := &model.Agent{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.agents.Create(ctx, a); err != nil {
		return nil, apperr.Storage("failed to create agent", err)
	}

	return a, nil
}

// Login checks credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	a, err := s.agents.FindByEmail(ctx, email)
	if err != nil {
		return "", apperr.Validation("invalid email or password")
	}

	if !util.CheckPassword(password, a.PasswordHash) {
		return "", apperr.Validation("invalid email or password")
	}

	token, err := util.GenerateJWT(a.ID, a.Name, s.jwtSecret)
	if err != nil {
		return "", apperr.Storage("failed to sign token", err)
	}

	return token, nil
}
