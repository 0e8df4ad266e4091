package client

import (
	"context"

	"realty_backend/internal/model"
	"realty_backend/internal/store"
	"realty_backend/pkg/query"
)

// Backend is the live data source behind a Manager.
type Backend interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]model.Property, error)
	Get(ctx context.Context, identifier string) (*model.Property, error)
	Search(ctx context.Context, term string) ([]model.Property, error)
	Create(ctx context.Context, fields map[string]any) (*model.Property, []string, error)
	Update(ctx context.Context, id uint, fields map[string]any) (*model.Property, []string, error)
	Delete(ctx context.Context, id uint) error
}

// StoreBackend talks to the database directly through a PropertyStore.
type StoreBackend struct {
	Store store.PropertyStore
}

func NewStoreBackend(s store.PropertyStore) *StoreBackend {
	return &StoreBackend{Store: s}
}

func (b *StoreBackend) Ping(ctx context.Context) error {
	_, err := b.Store.List(ctx, store.PropertyFilter{Limit: 1})
	return err
}

func (b *StoreBackend) List(ctx context.Context) ([]model.Property, error) {
	return b.Store.All(ctx)
}

func (b *StoreBackend) Get(ctx context.Context, identifier string) (*model.Property, error) {
	return b.Store.Get(ctx, identifier)
}

func (b *StoreBackend) Search(ctx context.Context, term string) ([]model.Property, error) {
	return b.Store.Search(ctx, term, query.MaxLimit)
}

func (b *StoreBackend) Create(ctx context.Context, fields map[string]any) (*model.Property, []string, error) {
	p, ignored, err := model.NewPropertyFromFields(fields)
	if err != nil {
		return nil, nil, err
	}
	if err := b.Store.Create(ctx, p); err != nil {
		return nil, nil, err
	}
	return p, ignored, nil
}

func (b *StoreBackend) Update(ctx context.Context, id uint, fields map[string]any) (*model.Property, []string, error) {
	return b.Store.Update(ctx, id, fields)
}

func (b *StoreBackend) Delete(ctx context.Context, id uint) error {
	_, err := b.Store.Delete(ctx, id)
	return err
}
