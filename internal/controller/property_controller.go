package controller

import (
	"context"
	"strconv"

	"realty_backend/internal/model"
	"realty_backend/internal/store"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/cache"
	"realty_backend/pkg/geo"
	"realty_backend/pkg/query"
	"realty_backend/pkg/utils/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const FeaturedLimit = 6

// EventRecorder stores server-observed analytics events.
type EventRecorder interface {
	Track(ctx context.Context, e *model.AnalyticsEvent) error
}

type PropertyController struct {
	store  store.PropertyStore
	cache  *cache.Cache
	files  storage.FileStore
	events EventRecorder
	log    *logrus.Logger
}

func NewPropertyController(s store.PropertyStore, c *cache.Cache, files storage.FileStore, events EventRecorder, log *logrus.Logger) *PropertyController {
	return &PropertyController{store: s, cache: c, files: files, events: events, log: log}
}

// filterFromQuery reads the listing filters shared by the public and admin
// lists. The returned area is non-nil when a radius search was asked for.
func filterFromQuery(c *fiber.Ctx) (store.PropertyFilter, *geo.Area, error) {
	f := store.PropertyFilter{
		Type:    c.Query("type"),
		Status:  c.Query("status"),
		City:    c.Query("city"),
		Area:    c.Query("area"),
		Country: c.Query("country"),
		Search:  c.Query("search"),
		Sort:    c.Query("sort"),
		Order:   c.Query("order"),
	}

	var err error
	if f.MinPrice, err = queryFloat(c, "min_price"); err != nil {
		return f, nil, err
	}
	if f.MaxPrice, err = queryFloat(c, "max_price"); err != nil {
		return f, nil, err
	}
	if f.Bedrooms, err = queryInt(c, "bedrooms"); err != nil {
		return f, nil, err
	}
	if f.Bathrooms, err = queryInt(c, "bathrooms"); err != nil {
		return f, nil, err
	}
	if f.Furnished, err = queryBool(c, "furnished"); err != nil {
		return f, nil, err
	}
	if f.Featured, err = queryBool(c, "featured"); err != nil {
		return f, nil, err
	}
	if f.Available, err = queryBool(c, "available"); err != nil {
		return f, nil, err
	}
	if f.Limit, err = queryIntOr(c, "limit", 0); err != nil {
		return f, nil, err
	}
	if f.Offset, err = queryIntOr(c, "offset", 0); err != nil {
		return f, nil, err
	}

	lat, err := queryFloat(c, "lat")
	if err != nil {
		return f, nil, err
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		return f, nil, err
	}
	radius, err := queryFloat(c, "radius_km")
	if err != nil {
		return f, nil, err
	}
	if lat == nil && lng == nil && radius == nil {
		return f, nil, nil
	}
	if lat == nil || lng == nil || radius == nil {
		return f, nil, apperror.Validation("radius_km", "lat, lng and radius_km must be given together")
	}
	area, err := geo.NewArea(*lat, *lng, *radius)
	if err != nil {
		return f, nil, apperror.Validation("radius_km", err.Error())
	}
	b := area.Bound()
	f.Bounds = &store.Bounds{MinLat: b.Min.Lat(), MaxLat: b.Max.Lat(), MinLng: b.Min.Lon(), MaxLng: b.Max.Lon()}
	return f, area, nil
}

// list runs the filter and, for radius searches, drops the bounding box
// corners from the page.
func (pc *PropertyController) list(ctx context.Context, f store.PropertyFilter, area *geo.Area) (*store.PropertyPage, error) {
	page, err := pc.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if area != nil {
		kept := page.Properties[:0]
		for _, p := range page.Properties {
			if area.Contains(p) {
				kept = append(kept, p)
			}
		}
		page.Total -= int64(len(page.Properties) - len(kept))
		page.Properties = kept
	}
	return page, nil
}

// cached serves key from the read cache, filling it with load on a miss.
func (pc *PropertyController) cached(c *fiber.Ctx, key string, dest any, load func() (any, error)) error {
	ctx := c.UserContext()
	if hit, err := pc.cache.Get(ctx, key, dest); err != nil {
		pc.log.WithError(err).Debug("Cache read failed")
	} else if hit {
		c.Set("X-Cache", "HIT")
		return c.JSON(dest)
	}

	v, err := load()
	if err != nil {
		return err
	}
	if err := pc.cache.Set(ctx, key, v); err != nil {
		pc.log.WithError(err).Debug("Cache write failed")
	}
	c.Set("X-Cache", "MISS")
	return c.JSON(v)
}

func (pc *PropertyController) invalidate(ctx context.Context) {
	if err := pc.cache.Invalidate(ctx); err != nil {
		pc.log.WithError(err).Warn("Failed to invalidate listing cache")
	}
}

// ListProperties returns published listings matching the query filters.
func (pc *PropertyController) ListProperties(c *fiber.Ctx) error {
	f, area, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	return pc.cached(c, cache.Key("list", c.Queries()), &fiber.Map{}, func() (any, error) {
		page, err := pc.list(c.UserContext(), f, area)
		if err != nil {
			return nil, err
		}
		return fiber.Map{
			"properties": page.Properties,
			"total":      page.Total,
			"limit":      page.Limit,
			"offset":     page.Offset,
		}, nil
	})
}

func (pc *PropertyController) SearchProperties(c *fiber.Ctx) error {
	term := c.Params("term")
	limit, err := queryIntOr(c, "limit", query.DefaultLimit)
	if err != nil {
		return err
	}
	key := cache.Key("search", map[string]string{"term": term, "limit": strconv.Itoa(limit)})
	return pc.cached(c, key, &fiber.Map{}, func() (any, error) {
		props, err := pc.store.Search(c.UserContext(), term, limit)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"properties": props, "total": len(props), "term": term}, nil
	})
}

func (pc *PropertyController) FeaturedProperties(c *fiber.Ctx) error {
	limit, err := queryIntOr(c, "limit", FeaturedLimit)
	if err != nil {
		return err
	}
	key := cache.Key("featured", map[string]string{"limit": strconv.Itoa(limit)})
	return pc.cached(c, key, &fiber.Map{}, func() (any, error) {
		props, err := pc.store.Featured(c.UserContext(), limit)
		if err != nil {
			return nil, err
		}
		return fiber.Map{"properties": props}, nil
	})
}

// PropertiesByType is the list endpoint with the type taken from the path.
func (pc *PropertyController) PropertiesByType(c *fiber.Ctx) error {
	f, area, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	f.Type = c.Params("type")
	if !model.ValidPropertyType(f.Type) {
		return apperror.Validationf("type", "Invalid property type %q", f.Type)
	}
	params := c.Queries()
	params["type"] = f.Type
	return pc.cached(c, cache.Key("list", params), &fiber.Map{}, func() (any, error) {
		page, err := pc.list(c.UserContext(), f, area)
		if err != nil {
			return nil, err
		}
		return fiber.Map{
			"properties": page.Properties,
			"total":      page.Total,
			"limit":      page.Limit,
			"offset":     page.Offset,
		}, nil
	})
}

func (pc *PropertyController) PropertySummary(c *fiber.Ctx) error {
	return pc.cached(c, cache.Key("summary", nil), &fiber.Map{}, func() (any, error) {
		summary, err := pc.store.Summary(c.UserContext())
		if err != nil {
			return nil, err
		}
		return fiber.Map{"summary": summary}, nil
	})
}

// PropertiesGeoJSON returns the filtered page as a FeatureCollection of
// listings that have coordinates.
func (pc *PropertyController) PropertiesGeoJSON(c *fiber.Ctx) error {
	f, area, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	if f.Limit == 0 {
		f.Limit = query.MaxLimit
	}
	page, err := pc.list(c.UserContext(), f, area)
	if err != nil {
		return err
	}
	data, err := geo.FeatureCollection(page.Properties).MarshalJSON()
	if err != nil {
		return apperror.Internal("Failed to encode GeoJSON", err)
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}

// GetProperty resolves an id, UUID or slug, counts the view and returns
// the row as it was before the increment.
func (pc *PropertyController) GetProperty(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p, err := pc.store.Get(ctx, c.Params("identifier"))
	if err != nil {
		return err
	}
	if !p.Published {
		return apperror.NotFound("Property")
	}

	if err := pc.store.IncrementViews(ctx, p.ID); err != nil {
		pc.log.WithError(err).WithField("property_id", p.ID).Warn("Failed to count property view")
	}
	if pc.events != nil {
		id := p.ID
		event := &model.AnalyticsEvent{
			EventType:  model.EventPropertyView,
			PropertyID: &id,
			PageURL:    c.OriginalURL(),
			Referrer:   c.Get(fiber.HeaderReferer),
			UserAgent:  c.Get(fiber.HeaderUserAgent),
			IPAddress:  c.IP(),
			SessionID:  c.Get("X-Session-ID"),
		}
		if err := pc.events.Track(ctx, event); err != nil {
			pc.log.WithError(err).Debug("Failed to record property view event")
		}
	}

	return c.JSON(fiber.Map{"property": p})
}

// AdminListProperties includes unpublished listings and skips the cache.
func (pc *PropertyController) AdminListProperties(c *fiber.Ctx) error {
	f, area, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	f.IncludeUnpublished = true
	page, err := pc.list(c.UserContext(), f, area)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (pc *PropertyController) AdminGetProperty(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	p, err := pc.store.Get(c.UserContext(), strconv.FormatUint(uint64(id), 10))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"property": p})
}

func (pc *PropertyController) CreateProperty(c *fiber.Ctx) error {
	fields, err := parseFields(c)
	if err != nil {
		return err
	}
	p, ignored, err := model.NewPropertyFromFields(fields)
	if err != nil {
		return err
	}
	if err := pc.store.Create(c.UserContext(), p); err != nil {
		return err
	}
	pc.invalidate(c.UserContext())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":        "Property created successfully",
		"property":       p,
		"ignored_fields": ignored,
	})
}

// UpdateProperty applies a partial update. Unknown or read-only keys are
// reported back in ignored_fields.
func (pc *PropertyController) UpdateProperty(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	fields, err := parseFields(c)
	if err != nil {
		return err
	}
	p, ignored, err := pc.store.Update(c.UserContext(), id, fields)
	if err != nil {
		return err
	}
	pc.invalidate(c.UserContext())

	return c.JSON(fiber.Map{
		"message":        "Property updated successfully",
		"property":       p,
		"ignored_fields": ignored,
	})
}

// DeleteProperty removes the row, then its upload directory. File cleanup
// failures are logged and do not fail the request.
func (pc *PropertyController) DeleteProperty(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	if _, err := pc.store.Delete(ctx, id); err != nil {
		return err
	}
	pc.invalidate(ctx)

	if pc.files != nil {
		if err := pc.files.RemoveDir(ctx, propertyDir(id)); err != nil {
			pc.log.WithError(err).WithField("property_id", id).Warn("Failed to remove property uploads")
		}
	}

	return c.JSON(fiber.Map{"message": "Property deleted successfully"})
}

// propertyDir is the upload directory of one listing, named by its id.
func propertyDir(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
