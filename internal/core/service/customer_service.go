package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/core/ident"
	"github.com/rl1809/bikeshop/internal/port"
)

// CustomerService is the customer directory the ledger checks orders against.
type CustomerService struct {
	customers port.CustomerRepository
	ids       *ident.Allocator
	logger    *zap.Logger
}

func NewCustomerService(customers port.CustomerRepository, ids *ident.Allocator, logger *zap.Logger) *CustomerService {
	return &CustomerService{customers: customers, ids: ids, logger: logger}
}

// Register stores c under a freshly allocated customer id and returns the stored record.
func (s *CustomerService) Register(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	if err := c.Validate(); err != nil {
		return domain.Customer{}, err
	}

	id, err := s.ids.Allocate(ctx, domain.CustomerIDLength, s.customers.Exists)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("allocate customer id: %w", err)
	}
	c.ID = id

	if err := s.customers.Create(ctx, c); err != nil {
		return domain.Customer{}, err
	}

	s.logger.Info("customer registered", zap.String("customer_id", id))
	return c, nil
}

func (s *CustomerService) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	if err := domain.CheckLength(id); err != nil {
		return nil, err
	}
	return s.customers.FindByID(ctx, id)
}

// Authenticate returns the customer whose forename, surname, postcode and
// house number all match.
func (s *CustomerService) Authenticate(ctx context.Context, details domain.Customer) (*domain.Customer, error) {
	if err := domain.CheckLength(details.Forename, details.Surname, details.Postcode); err != nil {
		return nil, err
	}
	return s.customers.FindByDetails(ctx, details)
}

// Update replaces the stored details of c.ID.
func (s *CustomerService) Update(ctx context.Context, c domain.Customer) error {
	if err := domain.CheckLength(c.ID); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.customers.Update(ctx, c); err != nil {
		return err
	}

	s.logger.Info("customer updated", zap.String("customer_id", c.ID))
	return nil
}

func (s *CustomerService) ListAll(ctx context.Context) ([]domain.Customer, error) {
	return s.customers.ListAll(ctx)
}
