package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const ProductSerialLength = 12

// AssemblyFee is charged once per order on top of the component costs.
var AssemblyFee = decimal.RequireFromString("10.00")

// Bicycle is the assembled product. Components are embedded by value as they
// were read when the bicycle was built.
type Bicycle struct {
	SerialNumber string
	CustomName   string
	BrandName    string
	Handlebar    Handlebar
	Frameset     Frameset
	WheelPair    WheelPair
}

// ComponentRef names one stocked component by kind and key.
type ComponentRef struct {
	Kind ComponentKind
	Key  ComponentKey
}

// NewBicycle builds a bicycle from its parts. An empty serial is allowed only
// while the caller still has to mint one; use Validate before persisting.
func NewBicycle(customName string, handlebar *Handlebar, frameset *Frameset, wheelPair *WheelPair, serial string) (Bicycle, error) {
	if strings.TrimSpace(customName) == "" || handlebar == nil || frameset == nil || wheelPair == nil ||
		handlebar.Key().IsZero() || frameset.Key().IsZero() || wheelPair.Key().IsZero() {
		return Bicycle{}, errIncomplete()
	}
	if err := CheckLength(customName); err != nil {
		return Bicycle{}, err
	}

	return Bicycle{
		SerialNumber: serial,
		CustomName:   customName,
		BrandName:    BicycleBrand(*frameset, *wheelPair),
		Handlebar:    *handlebar,
		Frameset:     *frameset,
		WheelPair:    *wheelPair,
	}, nil
}

// BicycleBrand derives the display brand: frameset brand plus lowercase tyre type.
func BicycleBrand(f Frameset, w WheelPair) string {
	return f.BrandName + " " + strings.ToLower(string(w.TyreType))
}

// Validate reports whether the bicycle can be persisted.
func (b Bicycle) Validate() error {
	if b.SerialNumber == "" || strings.TrimSpace(b.CustomName) == "" ||
		b.Handlebar.Key().IsZero() || b.Frameset.Key().IsZero() || b.WheelPair.Key().IsZero() {
		return errIncomplete()
	}
	return CheckLength(b.CustomName)
}

func (b Bicycle) ComponentRefs() []ComponentRef {
	return []ComponentRef{
		{Kind: KindHandlebar, Key: b.Handlebar.Key()},
		{Kind: KindFrameset, Key: b.Frameset.Key()},
		{Kind: KindWheelPair, Key: b.WheelPair.Key()},
	}
}

func BicycleNotFound(serial string) error {
	return fmt.Errorf("%w: the bicycle with serial number %s could not be found", ErrNotFound, serial)
}

func errIncomplete() error {
	return fmt.Errorf("%w: cannot proceed with the order, the bicycle is incomplete; check your selections and try again", ErrIncomplete)
}
