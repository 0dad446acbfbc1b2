package core

import (
	"context"
	"strings"

	"foodbike/pkg/domain"
)

// Registration is the sign-up form.
type Registration struct {
	Username string      `json:"username" validate:"required,min=3,max=32,username"`
	Password string      `json:"password" validate:"required,password"`
	Email    string      `json:"email" validate:"required,email"`
	Phone    string      `json:"phone" validate:"required,phone"`
	Role     domain.Role `json:"role" validate:"required,role"`
}

// Register creates an account. Every invalid field is reported at once; a
// taken username yields a *domain.DuplicateKeyError.
func (s *Service) Register(ctx context.Context, reg Registration) (Account, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Phone = strings.TrimSpace(reg.Phone)
	if err := domain.Validate(domain.EntityAccount, reg); err != nil {
		return Account{}, err
	}
	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return Account{}, err
	}

	var created Account
	_, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateAccount(Account{
			Username:     reg.Username,
			PasswordHash: hash,
			Email:        reg.Email,
			Phone:        reg.Phone,
			Role:         reg.Role,
		})
		return err
	})
	if err != nil && !domain.IsSoft(err) {
		return Account{}, err
	}
	s.logSoft(ctx, "register", err)
	s.log.Info(s.log.WithActor(ctx, created.Username, created.Role.String()), "account registered")
	return publicAccount(created), err
}

// Login verifies credentials and returns the account without its hash.
func (s *Service) Login(ctx context.Context, username, password string) (Account, error) {
	acc, ok, err := s.findAccount(ctx, strings.TrimSpace(username))
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, domain.ErrInvalidCredentials
	}
	match, err := s.hasher.Verify(password, acc.PasswordHash)
	if err != nil || !match {
		return Account{}, domain.ErrInvalidCredentials
	}
	return publicAccount(acc), nil
}

// GetAccount looks up an account by username.
func (s *Service) GetAccount(ctx context.Context, username string) (Account, error) {
	acc, ok, err := s.findAccount(ctx, username)
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, &domain.NotFoundError{Entity: domain.EntityAccount, Key: username}
	}
	return publicAccount(acc), nil
}

// ListAccounts returns every account, optionally restricted to one role.
func (s *Service) ListAccounts(ctx context.Context, role domain.Role) ([]Account, error) {
	var out []Account
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, a := range v.ListAccounts() {
			if role != "" && a.Role != role {
				continue
			}
			out = append(out, publicAccount(a))
		}
		return nil
	})
	return out, err
}

func (s *Service) findAccount(ctx context.Context, username string) (Account, bool, error) {
	var (
		acc Account
		ok  bool
	)
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		acc, ok = v.FindAccount(username)
		return nil
	})
	return acc, ok, err
}

func publicAccount(a Account) Account {
	a.PasswordHash = ""
	return a
}
