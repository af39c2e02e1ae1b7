package products

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pehlione.com/catalog/internal/modules/variants"
)

// Store is the persistence boundary the service depends on.
type Store interface {
	List(ctx context.Context, p ListParams) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	Create(ctx context.Context, p *Product) error
	ReplaceVariants(ctx context.Context, productID string, axes []variants.Axis, vs []Variant) error
	Delete(ctx context.Context, id string) error
}

type ListParams struct {
	Status string
	Limit  int
	Offset int
}

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) List(ctx context.Context, p ListParams) ([]Product, error) {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 24
	}
	q := r.db.WithContext(ctx).Model(&Product{})
	if p.Status != "" {
		q = q.Where("status = ?", p.Status)
	}
	var items []Product
	err := q.
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("updated_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&items).Error
	return items, err
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&p, "id = ?", id).Error
	return p, notFound(err)
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).
		Where("slug = ? AND status = ?", slug, StatusActive).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&p).Error
	return p, notFound(err)
}

// Create inserts the product and its variants in one transaction.
func (r *Repo) Create(ctx context.Context, p *Product) error {
	now := time.Now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	for i := range p.Variants {
		stampVariant(&p.Variants[i], p.ID, now)
	}

	err := withTxRetry(ctx, r.db, 3, func(tx *gorm.DB) error {
		return tx.Create(p).Error
	})
	if IsDuplicateKey(err) {
		return ErrDuplicateSlug
	}
	return err
}

// ReplaceVariants makes the stored variant set equal vs: rows whose SKU is gone are
// deleted, the rest are upserted on (product_id, sku).
func (r *Repo) ReplaceVariants(ctx context.Context, productID string, axes []variants.Axis, vs []Variant) error {
	now := time.Now()
	keep := make([]string, 0, len(vs))
	for i := range vs {
		stampVariant(&vs[i], productID, now)
		keep = append(keep, vs[i].SKU)
	}

	err := withTxRetry(ctx, r.db, 3, func(tx *gorm.DB) error {
		res := tx.Model(&Product{}).Where("id = ?", productID).Updates(map[string]any{
			"axes_json":  datatypes.NewJSONType(axes),
			"updated_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		del := tx.Where("product_id = ?", productID)
		if len(keep) > 0 {
			del = del.Where("sku NOT IN ?", keep)
		}
		if err := del.Delete(&Variant{}).Error; err != nil {
			return err
		}
		if len(vs) == 0 {
			return nil
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"options_json", "position", "price", "currency", "stock", "image_url", "updated_at"}),
		}).Create(&vs).Error
	})
	return err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func stampVariant(v *Variant, productID string, now time.Time) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.ProductID = productID
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func encodeOptions(axisNames, options []string) []byte {
	m := make(map[string]string, len(options))
	for i, o := range options {
		if i < len(axisNames) {
			m[axisNames[i]] = o
		}
	}
	b, err := json.Marshal(struct {
		Values []string          `json:"values"`
		ByAxis map[string]string `json:"by_axis"`
	}{Values: options, ByAxis: m})
	if err != nil {
		return []byte("{}")
	}
	return b
}

func decodeOptions(raw []byte) []string {
	var v struct {
		Values []string `json:"values"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil
	}
	return v.Values
}

func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}

// --- retry helpers (deadlock/lock timeout) ---

func withTxRetry(ctx context.Context, db *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if isRetryableMySQLError(err) && i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(50*(i+1)) * time.Millisecond):
			}
			continue
		}
		return err
	}
	return lastErr
}

func isRetryableMySQLError(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		// 1213: deadlock, 1205: lock wait timeout
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}
