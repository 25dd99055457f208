package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rl1809/bikeshop/internal/core/domain"
)

const orderColumns = "order_number, order_date, total_cost, status, customer_id, staff_id, product_serial"

type orderRepo struct {
	q queryer
}

func (r orderRepo) Exists(ctx context.Context, orderNumber string) (bool, error) {
	return exists(ctx, r.q, "find order", `SELECT 1 FROM orders WHERE order_number = ?`, orderNumber)
}

func (r orderRepo) FindByID(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.find(ctx, orderNumber, "")
}

// FindForUpdate reads the order and holds its row lock until the surrounding
// transaction ends.
func (r orderRepo) FindForUpdate(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.find(ctx, orderNumber, " FOR UPDATE")
}

func (r orderRepo) find(ctx context.Context, orderNumber, lock string) (*domain.Order, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = ?`+lock, orderNumber)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.OrderNotFound(orderNumber)
	}
	if err != nil {
		return nil, storageErr("find order", err)
	}
	return &order, nil
}

func (r orderRepo) FindByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.list(ctx, `WHERE customer_id = ? ORDER BY order_date`, customerID)
}

func (r orderRepo) FindByStaff(ctx context.Context, staffID string) ([]domain.Order, error) {
	return r.list(ctx, `WHERE staff_id = ? ORDER BY order_date`, staffID)
}

func (r orderRepo) FindPendingUnassigned(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `WHERE status = ? AND staff_id IS NULL ORDER BY order_date`, string(domain.OrderStatusPending))
}

func (r orderRepo) list(ctx context.Context, clause string, args ...any) ([]domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders `+clause, args...)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, storageErr("scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list orders", err)
	}
	return orders, nil
}

func scanOrder(s scanner) (domain.Order, error) {
	var o domain.Order
	var status string
	var staff sql.NullString
	err := s.Scan(&o.OrderNumber, &o.Date, &o.TotalCost, &status, &o.CustomerID, &staff, &o.ProductSerial)
	o.Status = domain.OrderStatus(status)
	o.StaffID = staff.String
	return o, err
}

func (r orderRepo) Create(ctx context.Context, order domain.Order) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.OrderNumber, order.Date, order.TotalCost, string(order.Status),
		order.CustomerID, nullString(order.StaffID), order.ProductSerial,
	)
	if err != nil {
		return storageErr("insert order", err)
	}
	return nil
}

func (r orderRepo) Delete(ctx context.Context, orderNumber string) error {
	return r.exec(ctx, "delete order", orderNumber, `DELETE FROM orders WHERE order_number = ?`, orderNumber)
}

func (r orderRepo) UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) error {
	return r.exec(ctx, "update order status", orderNumber,
		`UPDATE orders SET status = ? WHERE order_number = ?`, string(status), orderNumber)
}

func (r orderRepo) AssignStaff(ctx context.Context, orderNumber, staffID string) error {
	return r.exec(ctx, "assign staff", orderNumber,
		`UPDATE orders SET staff_id = ? WHERE order_number = ?`, staffID, orderNumber)
}

func (r orderRepo) UnassignStaff(ctx context.Context, orderNumber string) error {
	return r.exec(ctx, "unassign staff", orderNumber,
		`UPDATE orders SET staff_id = NULL, status = ? WHERE order_number = ?`,
		string(domain.OrderStatusPending), orderNumber)
}

// exec runs a single-row statement and reports a missing order as not found.
func (r orderRepo) exec(ctx context.Context, op, orderNumber, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return storageErr(op, err)
	}
	n, err := rowsAffected(res, op)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.OrderNotFound(orderNumber)
	}
	return nil
}

type lineItemRepo struct {
	q queryer
}

func (r lineItemRepo) CreateBatch(ctx context.Context, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	values := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*6)
	for _, it := range items {
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, it.OrderNumber, it.ItemID, it.BrandName, string(it.Type), it.Quantity, it.Cost)
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO line_item (order_number, item_id, brand_name, item_type, quantity, cost) VALUES `+
			strings.Join(values, ", "),
		args...,
	)
	if err != nil {
		return storageErr("insert line items", err)
	}
	return nil
}

func (r lineItemRepo) FindByOrder(ctx context.Context, orderNumber string) ([]domain.LineItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT order_number, item_id, brand_name, item_type, quantity, cost
		FROM line_item WHERE order_number = ? ORDER BY id`, orderNumber)
	if err != nil {
		return nil, storageErr("list line items", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var it domain.LineItem
		var typ string
		if err := rows.Scan(&it.OrderNumber, &it.ItemID, &it.BrandName, &typ, &it.Quantity, &it.Cost); err != nil {
			return nil, storageErr("scan line item", err)
		}
		it.Type = domain.ItemType(typ)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list line items", err)
	}
	return items, nil
}

func (r lineItemRepo) DeleteByOrder(ctx context.Context, orderNumber string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM line_item WHERE order_number = ?`, orderNumber); err != nil {
		return storageErr("delete line items", err)
	}
	return nil
}

type productRepo struct {
	q queryer
}

func (r productRepo) Exists(ctx context.Context, serial string) (bool, error) {
	return exists(ctx, r.q, "find bicycle", `SELECT 1 FROM bicycle WHERE serial_number = ?`, serial)
}

// FindByID loads the bicycle row and then each referenced component from its
// own table, so the returned stock levels are current.
func (r productRepo) FindByID(ctx context.Context, serial string) (*domain.Bicycle, error) {
	var bike domain.Bicycle
	var hKey, fKey, wKey domain.ComponentKey
	err := r.q.QueryRowContext(ctx, `
		SELECT serial_number, custom_name, brand_name,
		       handlebar_serial, handlebar_brand,
		       frameset_serial, frameset_brand,
		       wheel_pair_serial, wheel_pair_brand
		FROM bicycle WHERE serial_number = ?`, serial,
	).Scan(&bike.SerialNumber, &bike.CustomName, &bike.BrandName,
		&hKey.SerialNumber, &hKey.BrandName,
		&fKey.SerialNumber, &fKey.BrandName,
		&wKey.SerialNumber, &wKey.BrandName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.BicycleNotFound(serial)
	}
	if err != nil {
		return nil, storageErr("find bicycle", err)
	}

	if bike.Handlebar, err = newHandlebarRepo(r.q).FindByID(ctx, hKey); err != nil {
		return nil, err
	}
	if bike.Frameset, err = newFramesetRepo(r.q).FindByID(ctx, fKey); err != nil {
		return nil, err
	}
	if bike.WheelPair, err = newWheelPairRepo(r.q).FindByID(ctx, wKey); err != nil {
		return nil, err
	}
	return &bike, nil
}

func (r productRepo) Create(ctx context.Context, bike domain.Bicycle) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO bicycle (serial_number, custom_name, brand_name,
			handlebar_serial, handlebar_brand, frameset_serial, frameset_brand,
			wheel_pair_serial, wheel_pair_brand)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bike.SerialNumber, bike.CustomName, bike.BrandName,
		bike.Handlebar.SerialNumber, bike.Handlebar.BrandName,
		bike.Frameset.SerialNumber, bike.Frameset.BrandName,
		bike.WheelPair.SerialNumber, bike.WheelPair.BrandName,
	)
	if err != nil {
		return storageErr("insert bicycle", err)
	}
	return nil
}

func (r productRepo) Delete(ctx context.Context, serial string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bicycle WHERE serial_number = ?`, serial)
	if err != nil {
		return storageErr("delete bicycle", err)
	}
	n, err := rowsAffected(res, "delete bicycle")
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.BicycleNotFound(serial)
	}
	return nil
}

type customerRepo struct {
	q queryer
}

func (r customerRepo) Exists(ctx context.Context, customerID string) (bool, error) {
	return exists(ctx, r.q, "find customer", `SELECT 1 FROM customer WHERE customer_id = ?`, customerID)
}

const customerColumns = "customer_id, forename, surname, house_number, postcode"

func scanCustomer(s scanner) (domain.Customer, error) {
	var c domain.Customer
	err := s.Scan(&c.ID, &c.Forename, &c.Surname, &c.HouseNumber, &c.Postcode)
	return c, err
}

func (r customerRepo) FindByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	c, err := scanCustomer(r.q.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customer WHERE customer_id = ?`, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.CustomerNotFound(customerID)
	}
	if err != nil {
		return nil, storageErr("find customer", err)
	}
	return &c, nil
}

// FindByDetails returns the first customer whose name, postcode and house
// number all match.
func (r customerRepo) FindByDetails(ctx context.Context, details domain.Customer) (*domain.Customer, error) {
	c, err := scanCustomer(r.q.QueryRowContext(ctx, `
		SELECT `+customerColumns+` FROM customer
		WHERE forename = ? AND surname = ? AND postcode = ? AND house_number = ?
		ORDER BY customer_id LIMIT 1`,
		details.Forename, details.Surname, details.Postcode, details.HouseNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.CustomerNotMatched()
	}
	if err != nil {
		return nil, storageErr("authenticate customer", err)
	}
	return &c, nil
}

func (r customerRepo) ListAll(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+customerColumns+` FROM customer ORDER BY customer_id`)
	if err != nil {
		return nil, storageErr("list customers", err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, storageErr("scan customer", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list customers", err)
	}
	return customers, nil
}

func (r customerRepo) Update(ctx context.Context, c domain.Customer) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE customer SET forename = ?, surname = ?, house_number = ?, postcode = ?
		WHERE customer_id = ?`,
		c.Forename, c.Surname, c.HouseNumber, c.Postcode, c.ID,
	)
	if err != nil {
		return storageErr("update customer", err)
	}
	n, err := rowsAffected(res, "update customer")
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.CustomerNotFound(c.ID)
	}
	return nil
}

func (r customerRepo) Create(ctx context.Context, c domain.Customer) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO customer (customer_id, forename, surname, house_number, postcode)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Forename, c.Surname, c.HouseNumber, c.Postcode,
	)
	if err != nil {
		return storageErr("insert customer", err)
	}
	return nil
}
