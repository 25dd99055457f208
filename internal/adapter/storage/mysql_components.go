package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rl1809/bikeshop/internal/core/domain"
)

var componentTables = map[domain.ComponentKind]string{
	domain.KindFrameset:  "frameset",
	domain.KindHandlebar: "handlebar",
	domain.KindWheelPair: "wheel_pair",
}

var sharedColumns = []string{"serial_number", "brand_name", "name", "cost", "stock"}

type scanner interface {
	Scan(dest ...any) error
}

// componentTable implements port.ComponentRepository over one table whose
// first columns are shared by every component kind.
type componentTable[T domain.Component] struct {
	q       queryer
	kind    domain.ComponentKind
	table   string
	columns []string
	values  func(T) []any
	scan    func(scanner) (T, error)
}

func (t componentTable[T]) selectFrom() string {
	return "SELECT " + strings.Join(append(append([]string{}, sharedColumns...), t.columns...), ", ") + " FROM " + t.table
}

func (t componentTable[T]) Exists(ctx context.Context, key domain.ComponentKey) (bool, error) {
	return exists(ctx, t.q, "find "+string(t.kind),
		"SELECT 1 FROM "+t.table+" WHERE serial_number = ? AND brand_name = ?",
		key.SerialNumber, key.BrandName)
}

func (t componentTable[T]) FindByID(ctx context.Context, key domain.ComponentKey) (T, error) {
	row := t.q.QueryRowContext(ctx, t.selectFrom()+" WHERE serial_number = ? AND brand_name = ?",
		key.SerialNumber, key.BrandName)

	c, err := t.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, domain.ComponentNotFound(t.kind, key)
	}
	if err != nil {
		return c, storageErr("find "+string(t.kind), err)
	}
	return c, nil
}

func (t componentTable[T]) Create(ctx context.Context, c T) error {
	info := c.Info()
	cols := append(append([]string{}, sharedColumns...), t.columns...)
	args := append([]any{info.SerialNumber, info.BrandName, info.Name, info.Cost, info.Stock}, t.values(c)...)

	_, err := t.q.ExecContext(ctx,
		"INSERT INTO "+t.table+" ("+strings.Join(cols, ", ")+") VALUES ("+placeholders(len(cols))+")",
		args...,
	)
	if err != nil {
		err = storageErr("insert "+string(t.kind), err)
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.ComponentExists(t.kind, c.Key())
		}
		return err
	}
	return nil
}

func (t componentTable[T]) Update(ctx context.Context, c T) error {
	info := c.Info()
	sets := []string{"name = ?", "cost = ?", "stock = ?"}
	for _, col := range t.columns {
		sets = append(sets, col+" = ?")
	}
	args := append([]any{info.Name, info.Cost, info.Stock}, t.values(c)...)
	args = append(args, info.SerialNumber, info.BrandName)

	res, err := t.q.ExecContext(ctx,
		"UPDATE "+t.table+" SET "+strings.Join(sets, ", ")+" WHERE serial_number = ? AND brand_name = ?",
		args...,
	)
	if err != nil {
		return storageErr("update "+string(t.kind), err)
	}
	n, err := rowsAffected(res, "update "+string(t.kind))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ComponentNotFound(t.kind, c.Key())
	}
	return nil
}

func (t componentTable[T]) Delete(ctx context.Context, key domain.ComponentKey) error {
	res, err := t.q.ExecContext(ctx,
		"DELETE FROM "+t.table+" WHERE serial_number = ? AND brand_name = ?",
		key.SerialNumber, key.BrandName,
	)
	if err != nil {
		return storageErr("delete "+string(t.kind), err)
	}
	n, err := rowsAffected(res, "delete "+string(t.kind))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ComponentNotFound(t.kind, key)
	}
	return nil
}

func (t componentTable[T]) ListAll(ctx context.Context, fullAccess bool) ([]T, error) {
	if fullAccess {
		return t.query(ctx, false, nil, nil)
	}
	return t.query(ctx, true, nil, nil)
}

// query returns the rows matching conds. The customer view (inStock) hides
// empty rows and orders by cost; the staff view orders by key.
func (t componentTable[T]) query(ctx context.Context, inStock bool, conds []string, args []any) ([]T, error) {
	orderBy := "brand_name, serial_number"
	if inStock {
		conds = append([]string{"stock > 0"}, conds...)
		orderBy = "cost"
	}

	q := t.selectFrom()
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY " + orderBy

	rows, err := t.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageErr("list "+string(t.kind), err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		c, err := t.scan(rows)
		if err != nil {
			return nil, storageErr("scan "+string(t.kind), err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list "+string(t.kind), err)
	}
	return out, nil
}

func (t componentTable[T]) distinct(ctx context.Context, column string) ([]decimal.Decimal, error) {
	rows, err := t.q.QueryContext(ctx,
		"SELECT DISTINCT "+column+" FROM "+t.table+" WHERE stock > 0 ORDER BY "+column)
	if err != nil {
		return nil, storageErr("list "+column, err)
	}
	defer rows.Close()

	var out []decimal.Decimal
	for rows.Next() {
		var d decimal.Decimal
		if err := rows.Scan(&d); err != nil {
			return nil, storageErr("scan "+column, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list "+column, err)
	}
	return out, nil
}

func scanInfo(s scanner, info *domain.ComponentInfo, extra ...any) error {
	dest := append([]any{&info.SerialNumber, &info.BrandName, &info.Name, &info.Cost, &info.Stock}, extra...)
	return s.Scan(dest...)
}

type framesetRepo struct {
	componentTable[domain.Frameset]
}

func newFramesetRepo(q queryer) framesetRepo {
	return framesetRepo{componentTable[domain.Frameset]{
		q:       q,
		kind:    domain.KindFrameset,
		table:   componentTables[domain.KindFrameset],
		columns: []string{"size", "fork_name", "gear_name", "has_shocks"},
		values: func(f domain.Frameset) []any {
			return []any{f.Size, f.ForkName, f.GearName, f.HasShocks}
		},
		scan: func(s scanner) (domain.Frameset, error) {
			var f domain.Frameset
			err := scanInfo(s, &f.ComponentInfo, &f.Size, &f.ForkName, &f.GearName, &f.HasShocks)
			return f, err
		},
	}}
}

func (r framesetRepo) Filter(ctx context.Context, f domain.FramesetFilter) ([]domain.Frameset, error) {
	var conds []string
	var args []any
	if f.Size != nil {
		conds = append(conds, "size = ?")
		args = append(args, *f.Size)
	}
	if f.HasShocks != nil {
		conds = append(conds, "has_shocks = ?")
		args = append(args, *f.HasShocks)
	}
	return r.query(ctx, true, conds, args)
}

func (r framesetRepo) AvailableSizes(ctx context.Context) ([]decimal.Decimal, error) {
	return r.distinct(ctx, "size")
}

type handlebarRepo struct {
	componentTable[domain.Handlebar]
}

func newHandlebarRepo(q queryer) handlebarRepo {
	return handlebarRepo{componentTable[domain.Handlebar]{
		q:       q,
		kind:    domain.KindHandlebar,
		table:   componentTables[domain.KindHandlebar],
		columns: []string{"type"},
		values: func(h domain.Handlebar) []any {
			return []any{string(h.Type)}
		},
		scan: func(s scanner) (domain.Handlebar, error) {
			var h domain.Handlebar
			var typ string
			if err := scanInfo(s, &h.ComponentInfo, &typ); err != nil {
				return h, err
			}
			h.Type = domain.HandlebarType(typ)
			return h, nil
		},
	}}
}

func (r handlebarRepo) Filter(ctx context.Context, f domain.HandlebarFilter) ([]domain.Handlebar, error) {
	var conds []string
	var args []any
	if f.Type != nil {
		conds = append(conds, "type = ?")
		args = append(args, string(*f.Type))
	}
	return r.query(ctx, true, conds, args)
}

type wheelPairRepo struct {
	componentTable[domain.WheelPair]
}

func newWheelPairRepo(q queryer) wheelPairRepo {
	return wheelPairRepo{componentTable[domain.WheelPair]{
		q:       q,
		kind:    domain.KindWheelPair,
		table:   componentTables[domain.KindWheelPair],
		columns: []string{"diameter", "tyre_type", "brake_type"},
		values: func(w domain.WheelPair) []any {
			return []any{w.Diameter, string(w.TyreType), string(w.BrakeType)}
		},
		scan: func(s scanner) (domain.WheelPair, error) {
			var w domain.WheelPair
			var tyre, brake string
			if err := scanInfo(s, &w.ComponentInfo, &w.Diameter, &tyre, &brake); err != nil {
				return w, err
			}
			w.TyreType = domain.TyreType(tyre)
			w.BrakeType = domain.BrakeType(brake)
			return w, nil
		},
	}}
}

func (r wheelPairRepo) Filter(ctx context.Context, f domain.WheelPairFilter) ([]domain.WheelPair, error) {
	var conds []string
	var args []any
	if f.Diameter != nil {
		conds = append(conds, "diameter = ?")
		args = append(args, *f.Diameter)
	}
	if f.TyreType != nil {
		conds = append(conds, "tyre_type = ?")
		args = append(args, string(*f.TyreType))
	}
	if f.BrakeType != nil {
		conds = append(conds, "brake_type = ?")
		args = append(args, string(*f.BrakeType))
	}
	return r.query(ctx, true, conds, args)
}

func (r wheelPairRepo) AvailableDiameters(ctx context.Context) ([]decimal.Decimal, error) {
	return r.distinct(ctx, "diameter")
}

// stockRepo applies guarded relative updates so concurrent orders can never
// drive a component below zero.
type stockRepo struct {
	q queryer
}

func (r stockRepo) Adjust(ctx context.Context, ref domain.ComponentRef, delta int) error {
	table, ok := componentTables[ref.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown component kind %q", domain.ErrInvalidInput, ref.Kind)
	}

	res, err := r.q.ExecContext(ctx,
		"UPDATE "+table+" SET stock = stock + ? WHERE serial_number = ? AND brand_name = ? AND stock + ? >= 0",
		delta, ref.Key.SerialNumber, ref.Key.BrandName, delta,
	)
	if err != nil {
		return storageErr("adjust stock", err)
	}
	n, err := rowsAffected(res, "adjust stock")
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	found, err := exists(ctx, r.q, "adjust stock",
		"SELECT 1 FROM "+table+" WHERE serial_number = ? AND brand_name = ?",
		ref.Key.SerialNumber, ref.Key.BrandName)
	if err != nil {
		return err
	}
	if !found {
		return domain.ComponentNotFound(ref.Kind, ref.Key)
	}
	return fmt.Errorf("%w: %s %s is out of stock", domain.ErrInsufficientStock, ref.Kind, ref.Key)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
