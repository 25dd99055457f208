package service

import (
	"context"
	"fmt"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/core/ident"
	"github.com/rl1809/bikeshop/internal/port"
)

type AssemblyService struct {
	products port.ProductRepository
	ids      *ident.Allocator
}

func NewAssemblyService(products port.ProductRepository, ids *ident.Allocator) *AssemblyService {
	return &AssemblyService{products: products, ids: ids}
}

// Assemble validates the selection and mints a fresh product serial for it.
// Nothing is persisted until the bicycle is ordered.
func (s *AssemblyService) Assemble(
	ctx context.Context,
	customName string,
	handlebar *domain.Handlebar,
	frameset *domain.Frameset,
	wheelPair *domain.WheelPair,
) (domain.Bicycle, error) {
	bike, err := domain.NewBicycle(customName, handlebar, frameset, wheelPair, "")
	if err != nil {
		return domain.Bicycle{}, err
	}

	serial, err := s.ids.Allocate(ctx, domain.ProductSerialLength, s.products.Exists)
	if err != nil {
		return domain.Bicycle{}, fmt.Errorf("allocate product serial: %w", err)
	}
	bike.SerialNumber = serial

	return bike, nil
}
