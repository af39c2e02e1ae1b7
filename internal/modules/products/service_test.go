package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pehlione.com/catalog/internal/modules/variants"
	"pehlione.com/catalog/internal/shared/apperr"
	"pehlione.com/catalog/internal/storage"
)

type fakeStore struct {
	products  map[string]Product
	createErr error
	replaced  []Variant
}

func newFakeStore() *fakeStore { return &fakeStore{products: map[string]Product{}} }

func (f *fakeStore) List(_ context.Context, p ListParams) ([]Product, error) {
	var out []Product
	for _, pr := range f.products {
		if p.Status == "" || pr.Status == p.Status {
			out = append(out, pr)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetBySlug(_ context.Context, slug string) (Product, error) {
	for _, p := range f.products {
		if p.Slug == slug && p.Status == StatusActive {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (f *fakeStore) Create(_ context.Context, p *Product) error {
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = fmt.Sprintf("p%d", len(f.products)+1)
	f.products[p.ID] = *p
	return nil
}

func (f *fakeStore) ReplaceVariants(_ context.Context, id string, axes []variants.Axis, vs []Variant) error {
	p, ok := f.products[id]
	if !ok {
		return ErrNotFound
	}
	f.replaced = vs
	p.Variants = vs
	f.products[id] = p
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.products[id]; !ok {
		return ErrNotFound
	}
	delete(f.products, id)
	return nil
}

type fakeResolver struct {
	calls     []string
	failOn    string
	err       error
	discarded []string
	released  []string
}

func (f *fakeResolver) Resolve(_ context.Context, ref string) (string, string, error) {
	f.calls = append(f.calls, ref)
	if f.err != nil && (f.failOn == "" || f.failOn == ref) {
		return "", "", f.err
	}
	key := ref + ".png"
	return key, "https://cdn.example.com/" + key, nil
}

func (f *fakeResolver) Discard(_ context.Context, key string) error {
	f.discarded = append(f.discarded, key)
	return nil
}

func (f *fakeResolver) Release(ref string) error {
	f.released = append(f.released, ref)
	return nil
}

func (f *fakeResolver) Owns(url string) bool {
	return strings.HasPrefix(url, "https://cdn.example.com/")
}

type event struct{ typ, id string }

type fakeNotifier struct{ events []event }

func (f *fakeNotifier) Notify(_ context.Context, typ, id string) {
	f.events = append(f.events, event{typ, id})
}

func newTestService(store Store, res ImageResolver, n Notifier) *Service {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, res, l, WithNotifier(n), WithDefaultCurrency("try"))
}

var shirtAxes = []variants.Axis{
	{Name: "Color", Options: []string{"Red", "Blue"}},
	{Name: "Size", Options: []string{"S", "M"}},
}

func shirtInput() CreateInput {
	return CreateInput{
		Name:         "Linen Shirt",
		BasePrice:    decimal.NewFromInt(80),
		VirtualPrice: decimal.NewFromInt(100),
		Axes:         shirtAxes,
	}
}

func TestCreate(t *testing.T) {
	store, res, n := newFakeStore(), &fakeResolver{}, &fakeNotifier{}
	svc := newTestService(store, res, n)

	in := shirtInput()
	in.SKUs = variants.Expand(shirtAxes, nil, in.VirtualPrice)
	in.SKUs = variants.UpdateField(in.SKUs, 0, variants.FieldPrice, "85.50")
	in.SKUs = variants.UpdateField(in.SKUs, 0, variants.FieldStock, "4")
	in.SKUs = variants.AttachImage(in.SKUs, 1, *variants.LocalImage("stg1"))

	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "linen-shirt", p.Slug)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, "TRY", p.Currency)
	assert.Equal(t, shirtAxes, p.Axes.Data())
	require.Len(t, p.Variants, 4)

	assert.Equal(t, "Red-S", p.Variants[0].SKU)
	assert.True(t, p.Variants[0].Price.Equal(decimal.RequireFromString("85.5")))
	assert.Equal(t, 4, p.Variants[0].Stock)
	assert.Equal(t, "https://cdn.example.com/stg1.png", p.Variants[1].ImageURL)
	assert.True(t, p.Variants[3].Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, variants.DefaultStock, p.Variants[3].Stock)

	assert.Equal(t, []string{"stg1"}, res.calls)
	assert.Equal(t, []string{"stg1"}, res.released)
	assert.Empty(t, res.discarded)
	assert.Equal(t, []event{{EventCreated, p.ID}}, n.events)

	skus := p.SKUs()
	require.Len(t, skus, 4)
	assert.Equal(t, []string{"Red", "M"}, skus[1].Options)
	assert.Equal(t, variants.URLImage("https://cdn.example.com/stg1.png"), skus[1].Image)
}

func TestCreateFillsMissingCombinations(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeResolver{}, nil)

	in := shirtInput()
	in.SKUs = []variants.SKU{
		{CombinationKey: "Blue-M", Price: price("90"), Stock: 2},
		{CombinationKey: "Green-XL", Price: price("90"), Stock: 2},
	}

	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, p.Variants, 4)
	assert.Equal(t, "Blue-M", p.Variants[3].SKU)
	assert.Equal(t, 2, p.Variants[3].Stock)
	for _, v := range p.Variants {
		assert.NotEqual(t, "Green-XL", v.SKU)
	}
}

func TestCreateRejectsOutOfBoundsBeforeUpload(t *testing.T) {
	store, res := newFakeStore(), &fakeResolver{}
	svc := newTestService(store, res, nil)

	in := shirtInput()
	in.SKUs = variants.Expand(shirtAxes, nil, in.VirtualPrice)
	in.SKUs = variants.UpdateField(in.SKUs, 0, variants.FieldPrice, "10")
	in.SKUs = variants.UpdateField(in.SKUs, 3, variants.FieldPrice, "1000")
	in.SKUs = variants.AttachImage(in.SKUs, 1, *variants.LocalImage("stg1"))

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Invalid, ae.Kind)
	assert.Len(t, ae.Fields, 2)
	assert.Empty(t, res.calls)
	assert.Empty(t, store.products)
}

func TestCreateWithoutAxes(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeResolver{}, nil)

	in := shirtInput()
	in.Axes = []variants.Axis{{Name: "Color"}}

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSKUs))
	assert.Equal(t, 400, apperr.HTTPStatus(err))
}

func TestCreateBasePriceAboveVirtual(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeResolver{}, nil)

	in := shirtInput()
	in.BasePrice = decimal.NewFromInt(150)

	_, err := svc.Create(context.Background(), in)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "base_price")
}

func TestCreateDuplicateSlug(t *testing.T) {
	store := newFakeStore()
	store.createErr = ErrDuplicateSlug
	svc := newTestService(store, &fakeResolver{}, nil)

	_, err := svc.Create(context.Background(), shirtInput())
	assert.Equal(t, 409, apperr.HTTPStatus(err))
}

func TestCreateExpiredUpload(t *testing.T) {
	res := &fakeResolver{err: fmt.Errorf("open staged: %w", fs.ErrNotExist)}
	svc := newTestService(newFakeStore(), res, nil)

	in := shirtInput()
	in.SKUs = variants.AttachImage(variants.Expand(shirtAxes, nil, in.VirtualPrice), 2, *variants.LocalImage("gone"))

	_, err := svc.Create(context.Background(), in)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Invalid, ae.Kind)
	assert.Contains(t, ae.Fields, "Blue-S")
}

func TestUpdateSKUs(t *testing.T) {
	store, n := newFakeStore(), &fakeNotifier{}
	svc := newTestService(store, &fakeResolver{}, n)

	created, err := svc.Create(context.Background(), shirtInput())
	require.NoError(t, err)

	axes := []variants.Axis{
		{Name: "Color", Options: []string{"Red"}},
		{Name: "Size", Options: []string{"S", "L"}},
	}
	edited := created.SKUs()
	edited = variants.UpdateField(edited, 0, variants.FieldStock, "9")

	p, err := svc.UpdateSKUs(context.Background(), created.ID, axes, edited)
	require.NoError(t, err)

	require.Len(t, store.replaced, 2)
	assert.Equal(t, "Red-S", store.replaced[0].SKU)
	assert.Equal(t, 9, store.replaced[0].Stock)
	assert.Equal(t, "Red-L", store.replaced[1].SKU)
	assert.Equal(t, variants.DefaultStock, store.replaced[1].Stock)
	assert.Len(t, p.Variants, 2)
	assert.Equal(t, EventSKUsUpdated, n.events[len(n.events)-1].typ)
}

func TestUpdateSKUsUnknownProduct(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeResolver{}, nil)
	_, err := svc.UpdateSKUs(context.Background(), "nope", shirtAxes, nil)
	assert.Equal(t, 404, apperr.HTTPStatus(err))
}

func TestDetailOnlyActive(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeResolver{}, nil)

	in := shirtInput()
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Detail(context.Background(), "linen-shirt")
	assert.Equal(t, 404, apperr.HTTPStatus(err))

	in.Name, in.Status = "Wool Coat", StatusActive
	_, err = svc.Create(context.Background(), in)
	require.NoError(t, err)

	p, err := svc.Detail(context.Background(), "wool-coat")
	require.NoError(t, err)
	assert.Equal(t, "Wool Coat", p.Name)
}

func TestDelete(t *testing.T) {
	store, n := newFakeStore(), &fakeNotifier{}
	svc := newTestService(store, &fakeResolver{}, n)

	p, err := svc.Create(context.Background(), shirtInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), p.ID))
	assert.Equal(t, 404, apperr.HTTPStatus(svc.Delete(context.Background(), p.ID)))
	assert.Equal(t, EventDeleted, n.events[len(n.events)-1].typ)
}

func TestCreateDuplicateSlugKeepsStagedImages(t *testing.T) {
	ctx := context.Background()
	staging := storage.NewStaging(t.TempDir())
	durable := t.TempDir()
	resolver := &storage.Resolver{Staging: staging, Store: storage.NewLocal(durable, "/uploads")}

	store := newFakeStore()
	store.createErr = ErrDuplicateSlug
	svc := newTestService(store, resolver, nil)

	ref, err := staging.Stage(ctx, strings.NewReader("png"), "red.png")
	require.NoError(t, err)

	in := shirtInput()
	in.SKUs = variants.AttachImage(variants.Expand(shirtAxes, nil, in.VirtualPrice), 0, *variants.LocalImage(ref))

	_, err = svc.Create(ctx, in)
	assert.Equal(t, 409, apperr.HTTPStatus(err))

	entries, err := os.ReadDir(durable)
	require.NoError(t, err)
	assert.Empty(t, entries, "promoted copy must be discarded")
	_, _, err = staging.Open(ref)
	require.NoError(t, err, "staged upload must survive a failed save")

	store.createErr = nil
	p, err := svc.Create(ctx, in)
	require.NoError(t, err)

	url := p.Variants[0].ImageURL
	require.True(t, strings.HasPrefix(url, "/uploads/"), url)
	_, err = os.Stat(filepath.Join(durable, strings.TrimPrefix(url, "/uploads/")))
	assert.NoError(t, err)

	entries, err = os.ReadDir(durable)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, _, err = staging.Open(ref)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "staged upload is released after save")
}

func TestCreateDiscardsEarlierPromotionsOnFailure(t *testing.T) {
	res := &fakeResolver{failOn: "stg2", err: errors.New("bucket unavailable")}
	store := newFakeStore()
	svc := newTestService(store, res, nil)

	in := shirtInput()
	in.SKUs = variants.Expand(shirtAxes, nil, in.VirtualPrice)
	in.SKUs = variants.AttachImage(in.SKUs, 0, *variants.LocalImage("stg1"))
	in.SKUs = variants.AttachImage(in.SKUs, 2, *variants.LocalImage("stg2"))

	_, err := svc.Create(context.Background(), in)
	assert.Equal(t, 500, apperr.HTTPStatus(err))
	assert.Equal(t, []string{"stg1.png"}, res.discarded)
	assert.Empty(t, res.released)
	assert.Empty(t, store.products)
}

func TestCreateRoundsPricesBeforeBounds(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeResolver{}, nil)

	in := shirtInput()
	in.BasePrice = decimal.RequireFromString("80.004")
	in.SKUs = variants.Expand(shirtAxes, nil, in.VirtualPrice)
	in.SKUs = variants.UpdateField(in.SKUs, 0, variants.FieldPrice, "100.006")
	in.SKUs = variants.UpdateField(in.SKUs, 1, variants.FieldPrice, "79.996")

	_, err := svc.Create(context.Background(), in)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "Red-S")
	assert.NotContains(t, ae.Fields, "Red-M")

	in.SKUs = variants.UpdateField(in.SKUs, 0, variants.FieldPrice, "100.004")
	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, p.BasePrice.Equal(decimal.NewFromInt(80)))
	assert.True(t, p.Variants[0].Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, p.Variants[1].Price.Equal(decimal.NewFromInt(80)))
}

func TestCreateRejectsForeignImageURL(t *testing.T) {
	res := &fakeResolver{}
	svc := newTestService(newFakeStore(), res, nil)

	in := shirtInput()
	in.SKUs = variants.Expand(shirtAxes, nil, in.VirtualPrice)
	in.SKUs = variants.AttachImage(in.SKUs, 0, *variants.URLImage("https://evil.example.org/x.png"))
	in.SKUs = variants.AttachImage(in.SKUs, 1, *variants.LocalImage("stg1"))

	_, err := svc.Create(context.Background(), in)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Invalid, ae.Kind)
	assert.Contains(t, ae.Fields, "Red-S")
	assert.Empty(t, res.calls, "nothing is promoted when an image is rejected")

	in.SKUs = variants.AttachImage(in.SKUs, 0, *variants.URLImage("https://cdn.example.com/ok.png"))
	_, err = svc.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestUpdateSKUsKeepsSavedImageURL(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeResolver{}, nil)

	created, err := svc.Create(context.Background(), shirtInput())
	require.NoError(t, err)

	// stored before the storage driver changed
	p := store.products[created.ID]
	p.Variants[0].ImageURL = "https://old-bucket.example.com/red.png"
	store.products[created.ID] = p

	_, err = svc.UpdateSKUs(context.Background(), created.ID, shirtAxes, p.SKUs())
	require.NoError(t, err)
	assert.Equal(t, "https://old-bucket.example.com/red.png", store.replaced[0].ImageURL)
}
