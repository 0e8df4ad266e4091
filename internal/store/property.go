package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"realty_backend/internal/model"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/query"
	"realty_backend/pkg/utils/location"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropertyStore is the listing persistence contract shared by the HTTP
// handlers and the data manager.
type PropertyStore interface {
	List(ctx context.Context, f PropertyFilter) (*PropertyPage, error)
	Get(ctx context.Context, identifier string) (*model.Property, error)
	Create(ctx context.Context, p *model.Property) error
	Update(ctx context.Context, id uint, fields map[string]any) (*model.Property, []string, error)
	Delete(ctx context.Context, id uint) (*model.Property, error)
	Search(ctx context.Context, term string, limit int) ([]model.Property, error)
	Featured(ctx context.Context, limit int) ([]model.Property, error)
	IncrementViews(ctx context.Context, id uint) error
	Summary(ctx context.Context) (*PropertySummary, error)
	All(ctx context.Context) ([]model.Property, error)
}

// PropertyFilter is the validated listing query. Nil pointers and empty
// strings mean "not filtered".
type PropertyFilter struct {
	Type      string
	Status    string
	City      string
	Area      string
	Country   string
	MinPrice  *float64
	MaxPrice  *float64
	Bedrooms  *int
	Bathrooms *int
	Furnished *bool
	Featured  *bool
	Available *bool
	Search    string

	// Bounds restricts to listings with coordinates inside the box.
	Bounds *Bounds

	// IncludeUnpublished is set by admin listings only.
	IncludeUnpublished bool

	Sort   string
	Order  string
	Limit  int
	Offset int
}

// Bounds is a latitude/longitude box.
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

type PropertyPage struct {
	Properties []model.Property `json:"properties"`
	Total      int64            `json:"total"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
	Sort       string           `json:"sort"`
	Order      string           `json:"order"`
}

type PropertySummary struct {
	Total        int64            `json:"total"`
	Published    int64            `json:"published"`
	Available    int64            `json:"available"`
	Featured     int64            `json:"featured"`
	TotalViews   int64            `json:"total_views"`
	AveragePrice float64          `json:"average_price"`
	MinPrice     float64          `json:"min_price"`
	MaxPrice     float64          `json:"max_price"`
	ByType       map[string]int64 `json:"by_type"`
	ByStatus     map[string]int64 `json:"by_status"`
	ByCity       map[string]int64 `json:"by_city"`
}

var propertySpec = query.Spec{
	Table: "properties",
	Filters: []query.Filter{
		{Key: "type", Op: query.Equal, Columns: []string{"type"}},
		{Key: "status", Op: query.Equal, Columns: []string{"status"}},
		{Key: "city", Op: query.EqualFold, Columns: []string{"location_city"}},
		{Key: "area", Op: query.EqualFold, Columns: []string{"location_area"}},
		{Key: "country", Op: query.EqualFold, Columns: []string{"location_country"}},
		{Key: "min_price", Op: query.AtLeast, Columns: []string{"price"}},
		{Key: "max_price", Op: query.AtMost, Columns: []string{"price"}},
		{Key: "bedrooms", Op: query.AtLeast, Columns: []string{"bedrooms"}},
		{Key: "bathrooms", Op: query.AtLeast, Columns: []string{"bathrooms"}},
		{Key: "furnished", Op: query.Equal, Columns: []string{"furnished"}},
		{Key: "featured", Op: query.Equal, Columns: []string{"featured"}},
		{Key: "available", Op: query.Equal, Columns: []string{"available"}},
		{Key: "search", Op: query.Contains, Columns: []string{"title", "description", "location_area", "location_city"}},
	},
	Sorts: map[string]string{
		"created_at":  "created_at",
		"price":       "price",
		"bedrooms":    "bedrooms",
		"size":        "size",
		"views_count": "views_count",
		"title":       "title",
		"year_built":  "year_built",
	},
	DefaultSort: "created_at",
}

// PropertySorts lists the accepted sort keys.
func PropertySorts() []string {
	out := make([]string, 0, len(propertySpec.Sorts))
	for k := range propertySpec.Sorts {
		out = append(out, k)
	}
	return out
}

type GormPropertyStore struct {
	db *gorm.DB
}

func NewPropertyStore(db *gorm.DB) *GormPropertyStore {
	return &GormPropertyStore{db: db}
}

func (f PropertyFilter) params() query.Params {
	return query.Params{
		Values: map[string]any{
			"type":      f.Type,
			"status":    f.Status,
			"city":      f.City,
			"area":      f.Area,
			"country":   f.Country,
			"min_price": f.MinPrice,
			"max_price": f.MaxPrice,
			"bedrooms":  f.Bedrooms,
			"bathrooms": f.Bathrooms,
			"furnished": f.Furnished,
			"featured":  f.Featured,
			"available": f.Available,
			"search":    f.Search,
		},
		Sort:   f.Sort,
		Order:  f.Order,
		Limit:  f.Limit,
		Offset: f.Offset,
	}
}

// BuildPropertyQuery turns a filter into the row and count statements.
func BuildPropertyQuery(f PropertyFilter) query.Query {
	return propertySpec.Build(f.params(), func(b *query.Builder) {
		if !f.IncludeUnpublished {
			b.Literal("published = TRUE")
		}
		if f.Bounds != nil {
			b.Range("latitude", f.Bounds.MinLat, f.Bounds.MaxLat)
			b.Range("longitude", f.Bounds.MinLng, f.Bounds.MaxLng)
		}
	})
}

func (s *GormPropertyStore) List(ctx context.Context, f PropertyFilter) (*PropertyPage, error) {
	q := BuildPropertyQuery(f)

	var total int64
	if err := countRows(ctx, s.db, q, &total); err != nil {
		return nil, apperror.Internal("Failed to count properties", err)
	}

	properties := []model.Property{}
	if err := scanRows(ctx, s.db, q, &properties); err != nil {
		return nil, apperror.Internal("Failed to fetch properties", err)
	}

	return &PropertyPage{
		Properties: properties,
		Total:      total,
		Limit:      q.Limit,
		Offset:     q.Offset,
		Sort:       q.Sort,
		Order:      q.Order,
	}, nil
}

// Get resolves a numeric id, a UUID or a slug.
func (s *GormPropertyStore) Get(ctx context.Context, identifier string) (*model.Property, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperror.NotFound("Property")
	}

	tx := s.db.WithContext(ctx)
	if id, err := strconv.ParseUint(identifier, 10, 64); err == nil {
		tx = tx.Where("id = ?", id)
	} else if _, err := uuid.Parse(identifier); err == nil {
		tx = tx.Where("uuid = ?", strings.ToLower(identifier))
	} else {
		tx = tx.Where("slug = ?", strings.ToLower(identifier))
	}

	var p model.Property
	if err := tx.First(&p).Error; err != nil {
		return nil, notFoundOr(err, "Property")
	}
	return &p, nil
}

func (s *GormPropertyStore) Create(ctx context.Context, p *model.Property) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("A property with this slug already exists")
		}
		return apperror.Internal("Failed to create property", err)
	}
	return nil
}

// Update applies a partial replace: only the supplied writable fields are
// written. The keys that were ignored are returned to the caller.
func (s *GormPropertyStore) Update(ctx context.Context, id uint, fields map[string]any) (*model.Property, []string, error) {
	var p model.Property
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, nil, notFoundOr(err, "Property")
	}

	applied, ignored, err := model.ApplyPropertyFields(&p, fields)
	if err != nil {
		return nil, nil, err
	}
	if len(applied) == 0 {
		return &p, ignored, nil
	}

	if err := s.db.WithContext(ctx).Model(&p).Select(applied).Updates(&p).Error; err != nil {
		return nil, nil, apperror.Internal("Failed to update property", err)
	}
	return &p, ignored, nil
}

// Delete removes the row and returns what was deleted so callers can clean
// up its files.
func (s *GormPropertyStore) Delete(ctx context.Context, id uint) (*model.Property, error) {
	var p model.Property
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFoundOr(err, "Property")
	}

	result := s.db.WithContext(ctx).Delete(&model.Property{}, id)
	if result.Error != nil {
		return nil, apperror.Internal("Failed to delete property", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.NotFound("Property")
	}
	return &p, nil
}

func (s *GormPropertyStore) Search(ctx context.Context, term string, limit int) ([]model.Property, error) {
	if strings.TrimSpace(term) == "" {
		return []model.Property{}, nil
	}
	page, err := s.List(ctx, PropertyFilter{Search: term, Limit: limit})
	if err != nil {
		return nil, err
	}
	return page.Properties, nil
}

func (s *GormPropertyStore) Featured(ctx context.Context, limit int) ([]model.Property, error) {
	yes := true
	page, err := s.List(ctx, PropertyFilter{Featured: &yes, Available: &yes, Limit: limit})
	if err != nil {
		return nil, err
	}
	return page.Properties, nil
}

func (s *GormPropertyStore) IncrementViews(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&model.Property{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1))
	if result.Error != nil {
		return apperror.Internal("Failed to record view", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("Property")
	}
	return nil
}

func (s *GormPropertyStore) Summary(ctx context.Context) (*PropertySummary, error) {
	db := s.db.WithContext(ctx)
	sum := &PropertySummary{
		ByType:   map[string]int64{},
		ByStatus: map[string]int64{},
		ByCity:   map[string]int64{},
	}

	var totals struct {
		Total      int64
		Published  int64
		Available  int64
		Featured   int64
		TotalViews int64
		AvgPrice   float64
		MinPrice   float64
		MaxPrice   float64
	}
	err := db.Model(&model.Property{}).Select(`COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN published THEN 1 ELSE 0 END), 0) AS published,
		COALESCE(SUM(CASE WHEN available THEN 1 ELSE 0 END), 0) AS available,
		COALESCE(SUM(CASE WHEN featured THEN 1 ELSE 0 END), 0) AS featured,
		COALESCE(SUM(views_count), 0) AS total_views,
		COALESCE(AVG(price), 0) AS avg_price,
		COALESCE(MIN(price), 0) AS min_price,
		COALESCE(MAX(price), 0) AS max_price`).Scan(&totals).Error
	if err != nil {
		return nil, apperror.Internal("Failed to summarise properties", err)
	}
	sum.Total = totals.Total
	sum.Published = totals.Published
	sum.Available = totals.Available
	sum.Featured = totals.Featured
	sum.TotalViews = totals.TotalViews
	sum.AveragePrice = totals.AvgPrice
	sum.MinPrice = totals.MinPrice
	sum.MaxPrice = totals.MaxPrice

	groups := []struct {
		column string
		into   map[string]int64
	}{
		{"type", sum.ByType},
		{"status", sum.ByStatus},
		{"location_city", sum.ByCity},
	}
	for _, g := range groups {
		var rows []struct {
			GroupKey string
			Count    int64
		}
		err := db.Model(&model.Property{}).
			Select(fmt.Sprintf("%s AS group_key, COUNT(*) AS count", g.column)).
			Group(g.column).
			Scan(&rows).Error
		if err != nil {
			return nil, apperror.Internal("Failed to summarise properties", err)
		}
		for _, r := range rows {
			g.into[r.GroupKey] = r.Count
		}
	}
	return sum, nil
}

// All returns every published listing, newest first.
func (s *GormPropertyStore) All(ctx context.Context) ([]model.Property, error) {
	properties := []model.Property{}
	err := s.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC").
		Find(&properties).Error
	if err != nil {
		return nil, apperror.Internal("Failed to fetch properties", err)
	}
	return properties, nil
}

// Locations counts published listings per country, city and area.
func (s *GormPropertyStore) Locations(ctx context.Context) ([]location.Row, error) {
	rows := []location.Row{}
	err := s.db.WithContext(ctx).Model(&model.Property{}).
		Select("location_country AS country, location_city AS city, location_area AS area, COUNT(*) AS count").
		Where("published = ?", true).
		Group("location_country, location_city, location_area").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("Failed to load locations", err)
	}
	return rows, nil
}
