package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/efarm/internal/model"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "mysql"), mock
}

var productCols = []string{"id", "name", "category", "description", "price", "stock_quantity", "image_url", "is_active", "created_at"}

func TestUserRepoCreateNormalizesEmailAndAssignsID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WithArgs(sqlmock.AnyArg(), "ana@farm.test", nil, model.RoleUser, "hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &model.Profile{Email: "  Ana@Farm.TEST ", Role: model.RoleUser, PasswordHash: "hash"}
	require.NoError(t, NewUserRepo(db).Create(context.Background(), p))
	assert.Len(t, p.ID, 36)
	assert.Equal(t, "ana@farm.test", p.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := NewUserRepo(db).Create(context.Background(), &model.Profile{Email: "a@b.c", Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepoCreatePlainErrorMentioningCode(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnError(errors.New("dial tcp 10.0.0.7:1062: connection refused"))

	err := NewUserRepo(db).Create(context.Background(), &model.Profile{Email: "a@b.c", Role: model.RoleUser})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
}

func TestUserRepoGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE email=?")).
		WithArgs("ana@farm.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "role", "password_hash", "created_at"}).
			AddRow("u-1", "ana@farm.test", "Ana", "admin", "hash", created))

	p, err := NewUserRepo(db).GetByEmail(context.Background(), "ANA@farm.test")
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.ID)
	assert.Equal(t, model.RoleAdmin, p.Role)
	require.NotNil(t, p.FullName)
	assert.Equal(t, "Ana", *p.FullName)
}

func TestUserRepoGetByEmailMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE email=?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewUserRepo(db).GetByEmail(context.Background(), "nobody@farm.test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepoUpdateRoleMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET role=? WHERE id=?")).
		WithArgs(model.RoleAdmin, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewUserRepo(db).UpdateRole(context.Background(), "ghost", model.RoleAdmin), ErrNotFound)
}

func TestProductRepoDeleteReferenced(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id=?")).
		WithArgs("p-1").
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "foreign key"})

	assert.ErrorIs(t, NewProductRepo(db).Delete(context.Background(), "p-1"), ErrConflict)
}

func TestProductRepoDecrementStock(t *testing.T) {
	db, mock := newMock(t)
	q := regexp.QuoteMeta("UPDATE products SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?")
	mock.ExpectExec(q).WithArgs(2, "p-1", 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(9, "p-1", 9).WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewProductRepo(db)
	assert.NoError(t, repo.DecrementStock(context.Background(), "p-1", 2))
	assert.ErrorIs(t, repo.DecrementStock(context.Background(), "p-1", 9), ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepoListActive(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE is_active = TRUE ORDER BY name")).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow("p-1", "Maize seed", "seeds", nil, "12.50", 5, nil, true, time.Now()))

	list, err := NewProductRepo(db).ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, decimal.RequireFromString("12.5").Equal(list[0].Price))
	assert.Nil(t, list[0].Description)
}

func expectLockedProduct(mock sqlmock.Sqlmock, stock int) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = ? FOR UPDATE")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow("p-1", "Fertilizer", "inputs", nil, "10.00", stock, nil, true, time.Now()))
}

func TestOrderRepoPlaceAtomicCommits(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	expectLockedProduct(mock, 5)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(sqlmock.AnyArg(), "p-1", "u-1", 3, sqlmock.AnyArg(), model.OrderPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET stock_quantity")).
		WithArgs(3, "p-1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o := &model.Order{ProductID: "p-1", UserID: "u-1", Quantity: 3}
	err := NewOrderRepo(db).PlaceAtomic(context.Background(), o, func(p *model.Product) error {
		o.TotalPrice = p.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.True(t, decimal.NewFromInt(30).Equal(o.TotalPrice))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepoPlaceAtomicPrepareRejects(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	expectLockedProduct(mock, 1)
	mock.ExpectRollback()

	short := errors.New("short")
	o := &model.Order{ProductID: "p-1", UserID: "u-1", Quantity: 3}
	err := NewOrderRepo(db).PlaceAtomic(context.Background(), o, func(p *model.Product) error {
		if !p.InStock(o.Quantity) {
			return short
		}
		return nil
	})
	assert.ErrorIs(t, err, short)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepoPlaceAtomicMissingProduct(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(sqlmock.NewRows(productCols))
	mock.ExpectRollback()

	err := NewOrderRepo(db).PlaceAtomic(context.Background(), &model.Order{ProductID: "p-x", Quantity: 1},
		func(*model.Product) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepoPlaceAtomicStockRace(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	expectLockedProduct(mock, 5)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET stock_quantity")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewOrderRepo(db).PlaceAtomic(context.Background(), &model.Order{ProductID: "p-1", UserID: "u-1", Quantity: 3},
		func(*model.Product) error { return nil })
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepoListByUser(t *testing.T) {
	db, mock := newMock(t)
	cols := []string{"id", "product_id", "user_id", "quantity", "total_price", "status", "created_at",
		"product_name", "product_price", "product_image_url", "customer_name", "customer_email"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.user_id = ?")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("o-1", "p-1", "u-1", 2, "20.00", "pending", time.Now(), "Fertilizer", "10.00", nil, "Ana", "ana@farm.test"))

	list, err := NewOrderRepo(db).ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "o-1", list[0].ID)
	assert.Equal(t, model.OrderPending, list[0].Status)
	assert.Equal(t, "Fertilizer", list[0].ProductName)
}

func TestOrderRepoApprovedRevenue(t *testing.T) {
	db, mock := newMock(t)
	q := regexp.QuoteMeta("SELECT SUM(total_price) FROM orders WHERE status = ?")
	mock.ExpectQuery(q).WithArgs(model.OrderApproved).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))
	mock.ExpectQuery(q).WithArgs(model.OrderApproved).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("42.50"))

	repo := NewOrderRepo(db)
	got, err := repo.ApprovedRevenue(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = repo.ApprovedRevenue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42.5", got.String())
}

func TestLoginHistoryRepo(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO login_history")).
		WithArgs("u-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT user_id)")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))

	repo := NewLoginHistoryRepo(db)
	require.NoError(t, repo.Record(context.Background(), "u-1"))
	n, err := repo.CountDistinctUsersSince(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
