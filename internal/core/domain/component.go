package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxInputLength bounds every free-text field that reaches storage.
const MaxInputLength = 20

type ComponentKind string

const (
	KindFrameset  ComponentKind = "frameset"
	KindHandlebar ComponentKind = "handlebar"
	KindWheelPair ComponentKind = "wheel pair"
)

// ComponentKey is the composite identity of a stocked component.
type ComponentKey struct {
	SerialNumber string
	BrandName    string
}

func (k ComponentKey) IsZero() bool {
	return k.SerialNumber == "" && k.BrandName == ""
}

func (k ComponentKey) String() string {
	return k.BrandName + "/" + k.SerialNumber
}

// ComponentInfo holds the attributes every component kind shares.
type ComponentInfo struct {
	SerialNumber string
	Name         string
	BrandName    string
	Cost         decimal.Decimal
	Stock        int
}

func (c ComponentInfo) Key() ComponentKey {
	return ComponentKey{SerialNumber: c.SerialNumber, BrandName: c.BrandName}
}

func (c ComponentInfo) Info() ComponentInfo { return c }

// Component is implemented by Frameset, Handlebar and WheelPair.
type Component interface {
	Kind() ComponentKind
	Key() ComponentKey
	Info() ComponentInfo
	TextFields() []string
}

type HandlebarType string

const (
	HandlebarDropped  HandlebarType = "DROPPED"
	HandlebarHigh     HandlebarType = "HIGH"
	HandlebarStraight HandlebarType = "STRAIGHT"
)

func ParseHandlebarType(s string) (HandlebarType, error) {
	switch t := HandlebarType(strings.ToUpper(s)); t {
	case HandlebarDropped, HandlebarHigh, HandlebarStraight:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown handlebar type %q", ErrInvalidInput, s)
}

type TyreType string

const (
	TyreHybrid   TyreType = "HYBRID"
	TyreMountain TyreType = "MOUNTAIN"
	TyreRoad     TyreType = "ROAD"
)

func ParseTyreType(s string) (TyreType, error) {
	switch t := TyreType(strings.ToUpper(s)); t {
	case TyreHybrid, TyreMountain, TyreRoad:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown tyre type %q", ErrInvalidInput, s)
}

type BrakeType string

const (
	BrakeRim  BrakeType = "RIM"
	BrakeDisk BrakeType = "DISK"
)

func ParseBrakeType(s string) (BrakeType, error) {
	switch t := BrakeType(strings.ToUpper(s)); t {
	case BrakeRim, BrakeDisk:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown brake type %q", ErrInvalidInput, s)
}

type Frameset struct {
	ComponentInfo
	Size      decimal.Decimal
	ForkName  string
	GearName  string
	HasShocks bool
}

func (Frameset) Kind() ComponentKind { return KindFrameset }

func (f Frameset) TextFields() []string {
	return []string{f.SerialNumber, f.BrandName, f.Name, f.ForkName, f.GearName}
}

type Handlebar struct {
	ComponentInfo
	Type HandlebarType
}

func (Handlebar) Kind() ComponentKind { return KindHandlebar }

func (h Handlebar) TextFields() []string {
	return []string{h.SerialNumber, h.BrandName, h.Name}
}

type WheelPair struct {
	ComponentInfo
	Diameter  decimal.Decimal
	TyreType  TyreType
	BrakeType BrakeType
}

func (WheelPair) Kind() ComponentKind { return KindWheelPair }

func (w WheelPair) TextFields() []string {
	return []string{w.SerialNumber, w.BrandName, w.Name}
}

// FramesetFilter narrows the customer view of framesets. Nil fields match anything.
type FramesetFilter struct {
	Size      *decimal.Decimal
	HasShocks *bool
}

type HandlebarFilter struct {
	Type *HandlebarType
}

type WheelPairFilter struct {
	Diameter  *decimal.Decimal
	TyreType  *TyreType
	BrakeType *BrakeType
}

// CheckLength rejects any value longer than MaxInputLength characters.
func CheckLength(values ...string) error {
	for _, v := range values {
		if utf8.RuneCountInString(v) > MaxInputLength {
			return fmt.Errorf("%w: input cannot be longer than %d characters", ErrInputTooLong, MaxInputLength)
		}
	}
	return nil
}

// ValidateComponent runs the checks that must pass before a component is written.
func ValidateComponent(c Component) error {
	if err := CheckLength(c.TextFields()...); err != nil {
		return err
	}

	info := c.Info()
	if info.SerialNumber == "" || info.BrandName == "" {
		return fmt.Errorf("%w: %s requires a serial number and a brand name", ErrInvalidInput, c.Kind())
	}
	if info.Cost.IsNegative() {
		return fmt.Errorf("%w: %s cost cannot be negative", ErrInvalidInput, c.Kind())
	}
	if info.Stock < 0 {
		return fmt.Errorf("%w: %s stock cannot be negative", ErrInvalidInput, c.Kind())
	}

	switch v := c.(type) {
	case Handlebar:
		if _, err := ParseHandlebarType(string(v.Type)); err != nil {
			return err
		}
	case WheelPair:
		if _, err := ParseTyreType(string(v.TyreType)); err != nil {
			return err
		}
		if _, err := ParseBrakeType(string(v.BrakeType)); err != nil {
			return err
		}
	}
	return nil
}

// CanonicalComponent validates c and returns it with its enum fields in their
// stored upper-case form.
func CanonicalComponent[T Component](c T) (T, error) {
	if err := ValidateComponent(c); err != nil {
		return c, err
	}

	var out Component = c
	switch v := out.(type) {
	case Handlebar:
		v.Type, _ = ParseHandlebarType(string(v.Type))
		out = v
	case WheelPair:
		v.TyreType, _ = ParseTyreType(string(v.TyreType))
		v.BrakeType, _ = ParseBrakeType(string(v.BrakeType))
		out = v
	}
	return out.(T), nil
}

func ComponentNotFound(kind ComponentKind, key ComponentKey) error {
	return fmt.Errorf("%w: the %s with brand %s and serial number %s could not be found",
		ErrNotFound, kind, key.BrandName, key.SerialNumber)
}

func ComponentExists(kind ComponentKind, key ComponentKey) error {
	return fmt.Errorf("%w: the %s with brand %s and serial number %s already exists",
		ErrAlreadyExists, kind, key.BrandName, key.SerialNumber)
}

func NoMatch(kind ComponentKind) error {
	return fmt.Errorf("%w: could not find any %s for the selected filter(s), try again", ErrNoMatch, kind)
}
