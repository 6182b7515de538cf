package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

var ErrInvalidCredentials = &domain.Error{Kind: domain.KindUnauthorized, Message: "Invalid username or password"}

type SignupCommand struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginCommand struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthService struct {
	tx     port.Transactor
	users  port.UserRepository
	tokens port.TokenIssuer
	hasher port.PasswordHasher
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	tx port.Transactor,
	users port.UserRepository,
	tokens port.TokenIssuer,
	hasher port.PasswordHasher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		tx:     tx,
		users:  users,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, cmd SignupCommand) (*domain.User, error) {
	cmd.Username = strings.TrimSpace(cmd.Username)
	cmd.Email = strings.TrimSpace(cmd.Email)
	switch {
	case cmd.Username == "":
		return nil, domain.InvalidArgumentf("Username is required")
	case len(cmd.Username) > 50:
		return nil, domain.InvalidArgumentf("Username cannot exceed 50 characters")
	case cmd.Email == "":
		return nil, domain.InvalidArgumentf("Email is required")
	case len(cmd.Email) > 255:
		return nil, domain.InvalidArgumentf("Email cannot exceed 255 characters")
	case cmd.Password == "":
		return nil, domain.InvalidArgumentf("Password is required")
	case len(cmd.Password) > maxPasswordBytes:
		return nil, domain.InvalidArgumentf("Password cannot exceed %d bytes", maxPasswordBytes)
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     cmd.Username,
		Email:        cmd.Email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetUserByUsername(ctx, cmd.Username); err == nil {
			return domain.Conflictf("Username already taken")
		} else if domain.KindOf(err) != domain.KindNotFound {
			return err
		}
		if _, err := s.users.GetUserByEmail(ctx, cmd.Email); err == nil {
			return domain.Conflictf("Email already registered")
		} else if domain.KindOf(err) != domain.KindNotFound {
			return err
		}
		return s.users.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("username", user.Username))
	return user, nil
}

// Login returns a signed token. Unknown users and wrong passwords produce
// the same error.
func (s *AuthService) Login(ctx context.Context, cmd LoginCommand) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(cmd.Username))
	if domain.KindOf(err) == domain.KindNotFound {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !s.hasher.Compare(user.PasswordHash, cmd.Password) {
		s.logger.Debug("login rejected", zap.String("username", user.Username))
		return "", ErrInvalidCredentials
	}
	return s.tokens.IssueToken(user.Username, user.Email)
}

func (s *AuthService) Authenticate(token string) (*domain.Identity, error) {
	return s.tokens.ValidateToken(token)
}
