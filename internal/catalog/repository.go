// internal/catalog/repository.go
//
// Product query helpers.
//
// Context
// -------
// A review can start from a bare product ID.  The repository loads the
// product row, its availability dates, and its images, then caches the
// assembled aggregate so a burst of review starts for the same product costs
// one round of queries.  Concurrent misses for the same ID are coalesced
// through singleflight.
//
// Schema
// ------
//
//	product      (id PK, name, price, city_id)
//	city         (id PK, name, country)
//	availability (id PK, product_id, date DATE)
//	image        (id PK, product_id, image_url)
//
// Notes
// -----
//   - Dates are formatted in SQL so the driver's parseTime setting does not
//     matter.
//   - Availability rows are ordered by date, then id, so duplicate dates keep
//     a stable first match.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/xplora/internal/cache"
	"github.com/yanizio/xplora/internal/metrics"
)

// ErrProductNotFound is returned when no product row matches the ID.
var ErrProductNotFound = errors.New("product not found")

// Static defaults.  Override through NewRepository.
const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 5 * time.Minute
)

// Repository reads products from the catalog database.
type Repository struct {
	db    *sqlx.DB
	sfg   singleflight.Group
	cache *cache.LRU[int64, *Product]
}

// NewRepository wires a Repository over db.  size < 1 falls back to
// DefaultCacheSize.
func NewRepository(db *sqlx.DB, size int, ttl time.Duration) *Repository {
	if size < 1 {
		size = DefaultCacheSize
	}
	return &Repository{
		db:    db,
		cache: cache.New[int64, *Product](size, ttl),
	}
}

// productRow mirrors the flat product + city projection.
type productRow struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	Price       float64 `db:"price"`
	CityName    string  `db:"city_name"`
	CityCountry string  `db:"city_country"`
}

// ProductByID returns the product with its availability and images.
func (r *Repository) ProductByID(ctx context.Context, id int64) (*Product, error) {
	if p, ok := r.cache.Get(id); ok {
		return p, nil
	}

	v, err, _ := r.sfg.Do(strconv.FormatInt(id, 10), func() (any, error) {
		// Double-check after singleflight barrier.
		if p, ok := r.cache.Get(id); ok {
			return p, nil
		}
		// One caller's cancellation must not fail the others waiting here.
		p, err := r.load(context.WithoutCancel(ctx), id)
		if err != nil {
			if !errors.Is(err, ErrProductNotFound) {
				metrics.CatalogLoadErrorsTotal.Inc()
			}
			return nil, err
		}
		r.cache.Add(id, p)
		metrics.CatalogLoadTotal.Inc()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}

// Forget drops id from the cache, e.g. after availability changed.
func (r *Repository) Forget(id int64) { r.cache.Remove(id) }

func (r *Repository) load(ctx context.Context, id int64) (*Product, error) {
	const qProduct = `
        SELECT p.id, p.name, p.price,
               COALESCE(c.name, '')    AS city_name,
               COALESCE(c.country, '') AS city_country
        FROM   product p
        LEFT JOIN city c ON c.id = p.city_id
        WHERE  p.id = ?
        LIMIT  1`

	const qAvailability = `
        SELECT id, DATE_FORMAT(date, '%Y-%m-%d') AS date
        FROM   availability
        WHERE  product_id = ?
        ORDER  BY date, id`

	const qImages = `
        SELECT id, image_url
        FROM   image
        WHERE  product_id = ?
        ORDER  BY id`

	var row productRow
	if err := r.db.GetContext(ctx, &row, qProduct, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%d", ErrProductNotFound, id)
		}
		zap.L().Error("catalog product query", zap.Int64("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}

	p := &Product{
		ID:    row.ID,
		Name:  row.Name,
		Price: row.Price,
		City:  City{Name: row.CityName, Country: row.CityCountry},
	}

	if err := r.db.SelectContext(ctx, &p.AvailabilitySet, qAvailability, id); err != nil {
		return nil, fmt.Errorf("load availability for product %d: %w", id, err)
	}
	if err := r.db.SelectContext(ctx, &p.ImageSet, qImages, id); err != nil {
		return nil, fmt.Errorf("load images for product %d: %w", id, err)
	}

	zap.L().Debug("catalog product loaded",
		zap.Int64("product_id", id),
		zap.Int("availability", len(p.AvailabilitySet)),
		zap.Int("images", len(p.ImageSet)))
	return p, nil
}
