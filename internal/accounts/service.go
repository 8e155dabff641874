package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
	"github.com/minarilabs/storefront-backend/pkg/types"
)

// Service exposes account operations. Checkout resolves customers through it
// and falls back to the stored default address when no shipping address is
// supplied with the order.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Register(ctx context.Context, input RegisterInput) (*models.Account, error)
	SetDefaultAddress(ctx context.Context, id uuid.UUID, address types.Address) (*models.Account, error)
}

type service struct {
	repo     AccountRepository
	validate *validator.Validate
}

// NewService builds an account service.
func NewService(repo AccountRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	return &service{
		repo:     repo,
		validate: validator.New(),
	}, nil
}

// RegisterInput captures the fields needed to create an account.
type RegisterInput struct {
	Email          string
	Name           string
	Role           enums.AccountRole
	DefaultAddress *types.Address
}

// Get loads an account by id.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account, nil
}

// Register creates a new account. Email uniqueness is enforced by the DB.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Account, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account name is required")
	}
	role := input.Role
	if role == "" {
		role = enums.AccountRoleCustomer
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid account role")
	}
	if input.DefaultAddress != nil {
		if err := s.validate.Struct(input.DefaultAddress); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid default address")
		}
	}

	account := &models.Account{
		Email:          email,
		Name:           name,
		Role:           role,
		DefaultAddress: input.DefaultAddress,
	}
	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	return created, nil
}

// SetDefaultAddress validates and stores the customer's default shipping address.
func (s *service) SetDefaultAddress(ctx context.Context, id uuid.UUID, address types.Address) (*models.Account, error) {
	if err := s.validate.Struct(address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}

	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	copied := address.Clone()
	account.DefaultAddress = &copied
	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update account")
	}
	return updated, nil
}
