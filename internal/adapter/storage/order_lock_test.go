package storage_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rl1809/bikeshop/internal/adapter/storage"
	"github.com/rl1809/bikeshop/internal/core/domain"
	"github.com/rl1809/bikeshop/internal/core/ident"
	"github.com/rl1809/bikeshop/internal/core/service"
)

const lockedOrder = "12345678901"

func newLockingLedger(t *testing.T) (*service.OrderService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return service.NewOrderService(storage.NewMySQLAdapter(db), ident.NewAllocator(), nil, zaptest.NewLogger(t)), mock
}

func lockedOrderRow(status domain.OrderStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"order_number", "order_date", "total_cost", "status", "customer_id", "staff_id", "product_serial"}).
		AddRow(lockedOrder, time.Now(), "455.75", string(status), "10000000001", nil, "123456789012")
}

func expectLockedRead(mock sqlmock.Sqlmock, status domain.OrderStatus) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE order_number = ? FOR UPDATE")).
		WithArgs(lockedOrder).
		WillReturnRows(lockedOrderRow(status))
}

func TestCancelOrder_StatusReadHoldsRowLock(t *testing.T) {
	orders, mock := newLockingLedger(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM orders WHERE order_number = ?")).
		WithArgs(lockedOrder).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	expectLockedRead(mock, domain.OrderStatusConfirmed)
	mock.ExpectRollback()

	err := orders.CancelOrder(context.Background(), lockedOrder)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSetStatus_TransitionCheckHoldsRowLock(t *testing.T) {
	orders, mock := newLockingLedger(t)

	expectLockedRead(mock, domain.OrderStatusFulfilled)
	mock.ExpectRollback()

	err := orders.SetStatus(context.Background(), lockedOrder, domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSetStatus_UpdatesInsideLockingTx(t *testing.T) {
	orders, mock := newLockingLedger(t)

	expectLockedRead(mock, domain.OrderStatusPending)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = ? WHERE order_number = ?")).
		WithArgs("CONFIRMED", lockedOrder).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, orders.SetStatus(context.Background(), lockedOrder, domain.OrderStatusConfirmed))
}
