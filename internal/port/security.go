package port

import "github.com/rl1809/stockroom/internal/core/domain"

type TokenIssuer interface {
	IssueToken(username, email string) (string, error)
	ValidateToken(token string) (*domain.Identity, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
