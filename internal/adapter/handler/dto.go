package handler

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/core/service"
)

// kindsByPath maps the URL segment of a component route onto its kind.
var kindsByPath = map[string]domain.ComponentKind{
	"framesets":  domain.KindFrameset,
	"handlebars": domain.KindHandlebar,
	"wheelpairs": domain.KindWheelPair,
}

type ComponentKeyJSON struct {
	SerialNumber string `json:"serial_number"`
	BrandName    string `json:"brand_name"`
}

func (k ComponentKeyJSON) key() domain.ComponentKey {
	return domain.ComponentKey{SerialNumber: k.SerialNumber, BrandName: k.BrandName}
}

// ComponentJSON carries any component kind; fields that do not apply to a
// kind are omitted.
type ComponentJSON struct {
	Kind         string           `json:"kind"`
	SerialNumber string           `json:"serial_number"`
	BrandName    string           `json:"brand_name"`
	Name         string           `json:"name"`
	Cost         decimal.Decimal  `json:"cost"`
	Stock        int              `json:"stock"`
	Size         *decimal.Decimal `json:"size,omitempty"`
	ForkName     string           `json:"fork_name,omitempty"`
	GearName     string           `json:"gear_name,omitempty"`
	HasShocks    *bool            `json:"has_shocks,omitempty"`
	Type         string           `json:"type,omitempty"`
	Diameter     *decimal.Decimal `json:"diameter,omitempty"`
	TyreType     string           `json:"tyre_type,omitempty"`
	BrakeType    string           `json:"brake_type,omitempty"`
}

func toComponentJSON(c domain.Component) ComponentJSON {
	info := c.Info()
	out := ComponentJSON{
		Kind:         string(c.Kind()),
		SerialNumber: info.SerialNumber,
		BrandName:    info.BrandName,
		Name:         info.Name,
		Cost:         info.Cost,
		Stock:        info.Stock,
	}
	switch v := c.(type) {
	case domain.Frameset:
		out.Size = &v.Size
		out.ForkName = v.ForkName
		out.GearName = v.GearName
		out.HasShocks = &v.HasShocks
	case domain.Handlebar:
		out.Type = string(v.Type)
	case domain.WheelPair:
		out.Diameter = &v.Diameter
		out.TyreType = string(v.TyreType)
		out.BrakeType = string(v.BrakeType)
	}
	return out
}

func toComponentsJSON[T domain.Component](list []T) []ComponentJSON {
	out := make([]ComponentJSON, 0, len(list))
	for _, c := range list {
		out = append(out, toComponentJSON(c))
	}
	return out
}

// component builds the domain value for kind, parsing the enum fields.
func (j ComponentJSON) component(kind domain.ComponentKind) (domain.Component, error) {
	info := domain.ComponentInfo{
		SerialNumber: j.SerialNumber,
		Name:         j.Name,
		BrandName:    j.BrandName,
		Cost:         j.Cost,
		Stock:        j.Stock,
	}

	switch kind {
	case domain.KindFrameset:
		f := domain.Frameset{ComponentInfo: info, ForkName: j.ForkName, GearName: j.GearName}
		if j.Size != nil {
			f.Size = *j.Size
		}
		if j.HasShocks != nil {
			f.HasShocks = *j.HasShocks
		}
		return f, nil
	case domain.KindHandlebar:
		typ, err := domain.ParseHandlebarType(j.Type)
		if err != nil {
			return nil, err
		}
		return domain.Handlebar{ComponentInfo: info, Type: typ}, nil
	case domain.KindWheelPair:
		tyre, err := domain.ParseTyreType(j.TyreType)
		if err != nil {
			return nil, err
		}
		brake, err := domain.ParseBrakeType(j.BrakeType)
		if err != nil {
			return nil, err
		}
		w := domain.WheelPair{ComponentInfo: info, TyreType: tyre, BrakeType: brake}
		if j.Diameter != nil {
			w.Diameter = *j.Diameter
		}
		return w, nil
	}
	return nil, fmt.Errorf("%w: unknown component kind %q", domain.ErrInvalidInput, kind)
}

type CheckoutJSON struct {
	RequestID  string           `json:"request_id"`
	CustomerID string           `json:"customer_id"`
	CustomName string           `json:"custom_name"`
	Frameset   ComponentKeyJSON `json:"frameset"`
	Handlebar  ComponentKeyJSON `json:"handlebar"`
	WheelPair  ComponentKeyJSON `json:"wheel_pair"`
}

func (j CheckoutJSON) request() service.CheckoutRequest {
	return service.CheckoutRequest{
		RequestID:  j.RequestID,
		CustomerID: j.CustomerID,
		CustomName: j.CustomName,
		Frameset:   j.Frameset.key(),
		Handlebar:  j.Handlebar.key(),
		WheelPair:  j.WheelPair.key(),
	}
}

type LineItemJSON struct {
	ItemID    string          `json:"item_id"`
	BrandName string          `json:"brand_name"`
	Type      string          `json:"type"`
	Quantity  int             `json:"quantity"`
	Cost      decimal.Decimal `json:"cost"`
}

type OrderJSON struct {
	OrderNumber   string          `json:"order_number"`
	Date          time.Time       `json:"date"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Status        string          `json:"status"`
	CustomerID    string          `json:"customer_id"`
	StaffID       string          `json:"staff_id,omitempty"`
	ProductSerial string          `json:"product_serial"`
	Items         []LineItemJSON  `json:"items"`
}

func toOrderJSON(o domain.Order) OrderJSON {
	items := make([]LineItemJSON, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LineItemJSON{
			ItemID:    it.ItemID,
			BrandName: it.BrandName,
			Type:      string(it.Type),
			Quantity:  it.Quantity,
			Cost:      it.Cost,
		})
	}
	return OrderJSON{
		OrderNumber:   o.OrderNumber,
		Date:          o.Date,
		TotalCost:     o.TotalCost,
		Status:        string(o.Status),
		CustomerID:    o.CustomerID,
		StaffID:       o.StaffID,
		ProductSerial: o.ProductSerial,
		Items:         items,
	}
}

func toOrdersJSON(orders []domain.Order) []OrderJSON {
	out := make([]OrderJSON, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderJSON(o))
	}
	return out
}

type StatusJSON struct {
	Status string `json:"status"`
}

type StaffJSON struct {
	StaffID string `json:"staff_id"`
}

type CustomerJSON struct {
	ID          string `json:"id,omitempty"`
	Forename    string `json:"forename"`
	Surname     string `json:"surname"`
	HouseNumber int    `json:"house_number"`
	Postcode    string `json:"postcode"`
}

func (c CustomerJSON) customer() domain.Customer {
	return domain.Customer{Forename: c.Forename, Surname: c.Surname, HouseNumber: c.HouseNumber, Postcode: c.Postcode}
}

func toCustomerJSON(c domain.Customer) CustomerJSON {
	return CustomerJSON{ID: c.ID, Forename: c.Forename, Surname: c.Surname, HouseNumber: c.HouseNumber, Postcode: c.Postcode}
}

type ErrorJSON struct {
	Error string `json:"error"`
}
