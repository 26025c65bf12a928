// internal/catalog/repository_test.go
//
// Unit-tests for the product repository using sqlmock.
//
// Run: go test ./internal/catalog -v

package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	repo := NewRepository(sqlx.NewDb(db, "mysql"), 8, time.Minute)
	return repo, mock, func() { db.Close() }
}

func expectProduct(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM product p")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "city_name", "city_country"}).
			AddRow(id, "Boat tour on the Seine", 180.0, "Paris", "France"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM availability")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date"}).
			AddRow(7, "2025-04-01").
			AddRow(8, "2025-04-03"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM image")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_url"}).
			AddRow(1, "https://img.example/seine.jpg"))
}

func TestProductByID_LoadsAggregate(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()
	expectProduct(mock, 4)

	p, err := repo.ProductByID(context.Background(), 4)
	if err != nil {
		t.Fatalf("ProductByID error: %v", err)
	}
	if p.Name != "Boat tour on the Seine" || p.City.Name != "Paris" || p.City.Country != "France" {
		t.Fatalf("unexpected product: %#v", p)
	}
	if len(p.AvailabilitySet) != 2 || p.AvailabilitySet[0].ID != 7 || p.AvailabilitySet[0].Date != "2025-04-01" {
		t.Fatalf("unexpected availability: %#v", p.AvailabilitySet)
	}
	if got := p.CoverImage("fallback"); got != "https://img.example/seine.jpg" {
		t.Fatalf("CoverImage = %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestProductByID_CachesResult(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()
	expectProduct(mock, 4) // exactly one round of queries

	for i := 0; i < 3; i++ {
		if _, err := repo.ProductByID(context.Background(), 4); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}

	repo.Forget(4)
	expectProduct(mock, 4)
	if _, err := repo.ProductByID(context.Background(), 4); err != nil {
		t.Fatalf("after Forget: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("reload after Forget: %v", err)
	}
}

func TestProductByID_NotFound(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM product p")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "city_name", "city_country"}))

	_, err := repo.ProductByID(context.Background(), 99)
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
}

func TestProductByID_QueryError(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM product p")).
		WithArgs(int64(5)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ProductByID(context.Background(), 5)
	if err == nil || errors.Is(err, ErrProductNotFound) {
		t.Fatalf("err = %v, want wrapped driver error", err)
	}
}
