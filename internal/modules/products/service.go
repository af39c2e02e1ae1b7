package products

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"pehlione.com/catalog/internal/modules/variants"
	"pehlione.com/catalog/internal/shared/apperr"
	"pehlione.com/catalog/internal/shared/slug"
)

const (
	EventCreated     = "product.created"
	EventSKUsUpdated = "product.skus_updated"
	EventDeleted     = "product.deleted"
)

// ImageResolver promotes staged uploads to durable storage. Resolve leaves the
// staged file in place; the service Releases it once the product is saved and
// Discards the durable key when the save fails.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) (key, url string, err error)
	Discard(ctx context.Context, key string) error
	Release(ref string) error
	// Owns reports whether url points into durable storage.
	Owns(url string) bool
}

type Notifier interface {
	Notify(ctx context.Context, eventType, productID string)
}

type Service struct {
	store    Store
	images   ImageResolver
	notifier Notifier
	log      *slog.Logger
	currency string
}

type Option func(*Service)

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithDefaultCurrency(c string) Option {
	return func(s *Service) { s.currency = strings.ToUpper(strings.TrimSpace(c)) }
}

func NewService(store Store, images ImageResolver, l *slog.Logger, opts ...Option) *Service {
	if l == nil {
		l = slog.Default()
	}
	s := &Service{store: store, images: images, log: l, currency: "EUR"}
	for _, o := range opts {
		o(s)
	}
	return s
}

type CreateInput struct {
	Name         string
	Slug         string
	Description  string
	Status       string
	Currency     string
	BasePrice    decimal.Decimal
	VirtualPrice decimal.Decimal
	Axes         []variants.Axis
	SKUs         []variants.SKU
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	base, virtual := in.BasePrice.Round(2), in.VirtualPrice.Round(2)
	skus, promoted, err := s.prepareSKUs(ctx, in.Axes, in.SKUs, base, virtual, nil)
	if err != nil {
		return Product{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.currency
	}
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	sl := strings.TrimSpace(in.Slug)
	if sl == "" {
		sl = in.Name
	}

	p := Product{
		Name:         strings.TrimSpace(in.Name),
		Slug:         slug.FromName(sl),
		Description:  strings.TrimSpace(in.Description),
		Status:       status,
		Currency:     currency,
		BasePrice:    base,
		VirtualPrice: virtual,
		Axes:         datatypes.NewJSONType(in.Axes),
		Variants:     toVariants(in.Axes, skus, virtual, currency),
	}

	if err := s.store.Create(ctx, &p); err != nil {
		s.discard(ctx, promoted)
		if errors.Is(err, ErrDuplicateSlug) {
			return Product{}, apperr.ConflictErr("A product with this slug already exists.")
		}
		return Product{}, apperr.Wrap(fmt.Errorf("create product: %w", err))
	}
	s.release(ctx, promoted)

	s.log.InfoContext(ctx, "product_created",
		slog.String("product_id", p.ID),
		slog.String("slug", p.Slug),
		slog.Int("skus", len(p.Variants)),
	)
	s.notify(ctx, EventCreated, p.ID)
	return p, nil
}

// UpdateSKUs re-expands and stores the SKU set of an existing product.
func (s *Service) UpdateSKUs(ctx context.Context, id string, axes []variants.Axis, edited []variants.SKU) (Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}

	saved := make(map[string]bool, len(p.Variants))
	for _, v := range p.Variants {
		if v.ImageURL != "" {
			saved[v.ImageURL] = true
		}
	}

	skus, promoted, err := s.prepareSKUs(ctx, axes, edited, p.BasePrice, p.VirtualPrice, saved)
	if err != nil {
		return Product{}, err
	}

	vs := toVariants(axes, skus, p.VirtualPrice, p.Currency)
	if err := s.store.ReplaceVariants(ctx, id, axes, vs); err != nil {
		s.discard(ctx, promoted)
		if errors.Is(err, ErrNotFound) {
			return Product{}, apperr.NotFoundErr("Product not found.")
		}
		return Product{}, apperr.Wrap(fmt.Errorf("replace variants: %w", err))
	}
	s.release(ctx, promoted)

	s.log.InfoContext(ctx, "product_skus_updated",
		slog.String("product_id", id),
		slog.Int("skus", len(vs)),
	)
	s.notify(ctx, EventSKUsUpdated, id)
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, apperr.NotFoundErr("Product not found.")
		}
		return Product{}, apperr.Wrap(err)
	}
	return p, nil
}

// Detail returns an active product for the storefront.
func (s *Service) Detail(ctx context.Context, slug string) (Product, error) {
	p, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, apperr.NotFoundErr("Product not found.")
		}
		return Product{}, apperr.Wrap(err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Product, error) {
	items, err := s.store.List(ctx, params)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("list products: %w", err))
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFoundErr("Product not found.")
		}
		return apperr.Wrap(fmt.Errorf("delete product: %w", err))
	}
	s.notify(ctx, EventDeleted, id)
	return nil
}

// promotion is a staged upload copied to durable storage for one submission.
type promotion struct {
	ref string
	key string
}

// prepareSKUs is the submission pipeline: the key set is recomputed from axes,
// prices are rounded to the stored precision, bounds and image refs are checked
// over the whole list, then pending images are promoted. Nothing is promoted when
// validation fails, and a failed promotion discards the ones before it.
// saved holds image URLs already stored on the product.
func (s *Service) prepareSKUs(ctx context.Context, axes []variants.Axis, edited []variants.SKU, base, virtual decimal.Decimal, saved map[string]bool) ([]variants.SKU, []promotion, error) {
	if base.GreaterThan(virtual) {
		return nil, nil, apperr.InvalidErr("Base price cannot exceed the reference price.", map[string]string{
			"base_price": "Must not be greater than virtual_price.",
		})
	}

	skus := variants.Expand(axes, edited, virtual)
	if len(skus) == 0 {
		ae := apperr.InvalidErr("Configure at least one variant axis with options.", map[string]string{
			"axes": "At least one axis with options is required.",
		})
		ae.Err = ErrNoSKUs
		return nil, nil, ae
	}

	for i := range skus {
		if skus[i].Price != nil {
			p := skus[i].Price.Round(2)
			skus[i].Price = &p
		}
	}

	if err := ValidatePriceBounds(skus, base, virtual); err != nil {
		return nil, nil, err
	}
	if err := s.checkImages(skus, saved); err != nil {
		return nil, nil, err
	}

	var promoted []promotion
	for i := range skus {
		img := skus[i].Image
		if !img.Pending() {
			continue
		}
		if s.images == nil {
			return nil, nil, apperr.Wrap(errors.New("image resolver not configured"))
		}
		key, url, err := s.images.Resolve(ctx, img.Ref)
		if err != nil {
			s.discard(ctx, promoted)
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil, apperr.InvalidErr("An uploaded image has expired, please upload it again.", map[string]string{
					skus[i].CombinationKey: "Image upload not found.",
				})
			}
			return nil, nil, apperr.Wrap(fmt.Errorf("resolve image for %s: %w", skus[i].CombinationKey, err))
		}
		promoted = append(promoted, promotion{ref: img.Ref, key: key})
		skus = variants.AttachImage(skus, i, *variants.URLImage(url))
	}
	return skus, promoted, nil
}

// checkImages accepts url images only when they point into durable storage or
// are already stored on the product.
func (s *Service) checkImages(skus []variants.SKU, saved map[string]bool) error {
	fields := map[string]string{}
	for _, sk := range skus {
		img := sk.Image
		switch {
		case img == nil, img.Pending():
		case img.Kind != variants.ImageURL:
			fields[sk.CombinationKey] = "Unknown image kind."
		case len(img.Ref) > maxImageURLLength:
			fields[sk.CombinationKey] = "Image URL is too long."
		case saved[img.Ref]:
		case s.images == nil || !s.images.Owns(img.Ref):
			fields[sk.CombinationKey] = "Image must be uploaded through the catalog."
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return apperr.InvalidErr("Some SKU images are not accepted.", fields)
}

// discard removes promoted copies after a failed save.
func (s *Service) discard(ctx context.Context, promoted []promotion) {
	for _, p := range promoted {
		if err := s.images.Discard(ctx, p.key); err != nil {
			s.log.WarnContext(ctx, "image_discard_failed", slog.String("key", p.key), slog.Any("err", err))
		}
	}
}

// release removes staged files whose copies were saved.
func (s *Service) release(ctx context.Context, promoted []promotion) {
	for _, p := range promoted {
		if err := s.images.Release(p.ref); err != nil {
			s.log.WarnContext(ctx, "staged_release_failed", slog.String("ref", p.ref), slog.Any("err", err))
		}
	}
}

func (s *Service) notify(ctx context.Context, eventType, productID string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, eventType, productID)
	}
}

func toVariants(axes []variants.Axis, skus []variants.SKU, virtual decimal.Decimal, currency string) []Variant {
	names := variants.AxisNames(axes)
	out := make([]Variant, 0, len(skus))
	for i, sk := range skus {
		v := Variant{
			SKU:      sk.CombinationKey,
			Options:  encodeOptions(names, sk.Options),
			Position: i,
			Price:    sk.EffectivePrice(virtual),
			Currency: currency,
			Stock:    sk.Stock,
		}
		if sk.Image != nil && sk.Image.Kind == variants.ImageURL {
			v.ImageURL = sk.Image.Ref
		}
		out = append(out, v)
	}
	return out
}
