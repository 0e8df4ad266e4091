package model

import (
	"sort"
	"strings"

	"realty_backend/pkg/apperror"

	"gorm.io/datatypes"
)

type fieldSetter func(p *Property, v any) error

// RequiredPropertyFields must be present and non-empty when a listing is created.
var RequiredPropertyFields = []string{"title", "type", "status", "price", "location_area", "location_city"}

// readOnlyPropertyFields are managed by the store and never taken from input.
var readOnlyPropertyFields = map[string]bool{
	"id":          true,
	"uuid":        true,
	"slug":        true,
	"views_count": true,
	"created_at":  true,
	"updated_at":  true,
}

// propertyFields maps the writable JSON keys, which are also the column names,
// to their setters.
var propertyFields = map[string]fieldSetter{
	"title": func(p *Property, v any) error {
		s, err := asString(v)
		if err != nil {
			return err
		}
		if s == "" {
			return errRequired
		}
		p.Title = s
		return nil
	},
	"type": func(p *Property, v any) error {
		s, err := asString(v)
		if err != nil {
			return err
		}
		if !ValidPropertyType(s) {
			return errInvalidChoice(s, PropertyTypes)
		}
		p.Type = PropertyType(s)
		return nil
	},
	"status": func(p *Property, v any) error {
		s, err := asString(v)
		if err != nil {
			return err
		}
		if !ValidPropertyStatus(s) {
			return errInvalidChoice(s, PropertyStatuses)
		}
		p.Status = PropertyStatus(s)
		return nil
	},
	"price": func(p *Property, v any) error {
		f, err := asFloat(v)
		if err != nil {
			return err
		}
		if f < 0 {
			return errNegative
		}
		p.Price = f
		return nil
	},
	"currency": func(p *Property, v any) error {
		s, err := asString(v)
		if err != nil {
			return err
		}
		s = strings.ToUpper(s)
		if !ValidCurrency(s) {
			return errInvalidChoice(s, Currencies)
		}
		p.Currency = Currency(s)
		return nil
	},
	"location_area":    stringField(func(p *Property) *string { return &p.LocationArea }, true),
	"location_city":    stringField(func(p *Property) *string { return &p.LocationCity }, true),
	"location_country": stringField(func(p *Property) *string { return &p.LocationCountry }, false),
	"latitude": func(p *Property, v any) error {
		f, err := optionalFloat(v, -90, 90)
		if err != nil {
			return err
		}
		p.Latitude = f
		return nil
	},
	"longitude": func(p *Property, v any) error {
		f, err := optionalFloat(v, -180, 180)
		if err != nil {
			return err
		}
		p.Longitude = f
		return nil
	},
	"bedrooms":  countField(func(p *Property) *int { return &p.Bedrooms }),
	"bathrooms": countField(func(p *Property) *int { return &p.Bathrooms }),
	"parking":   countField(func(p *Property) *int { return &p.Parking }),
	"size": func(p *Property, v any) error {
		f, err := asFloat(v)
		if err != nil {
			return err
		}
		if f < 0 {
			return errNegative
		}
		p.Size = f
		return nil
	},
	"size_unit": func(p *Property, v any) error {
		s, err := asString(v)
		if err != nil {
			return err
		}
		if s == "" {
			s = DefaultSizeUnit
		}
		p.SizeUnit = strings.ToLower(s)
		return nil
	},
	"year_built": func(p *Property, v any) error {
		if isBlank(v) {
			p.YearBuilt = nil
			return nil
		}
		n, err := asInt(v)
		if err != nil {
			return err
		}
		if n < 1000 || n > 9999 {
			return errYear
		}
		p.YearBuilt = &n
		return nil
	},
	"furnished":         boolField(func(p *Property) *bool { return &p.Furnished }),
	"description":       stringField(func(p *Property) *string { return &p.Description }, false),
	"short_description": stringField(func(p *Property) *string { return &p.ShortDescription }, false),
	"amenities": func(p *Property, v any) error {
		list, err := asStringList(v)
		if err != nil {
			return err
		}
		p.Amenities = datatypes.JSONSlice[string](list)
		return nil
	},
	"features": func(p *Property, v any) error {
		m, err := asMap(v)
		if err != nil {
			return err
		}
		p.Features = datatypes.JSONMap(m)
		return nil
	},
	"images": func(p *Property, v any) error {
		imgs, err := asImages(v)
		if err != nil {
			return err
		}
		p.Images = datatypes.JSONSlice[Image](imgs)
		return nil
	},
	"video_urls": func(p *Property, v any) error {
		list, err := asStringList(v)
		if err != nil {
			return err
		}
		p.VideoURLs = datatypes.JSONSlice[string](list)
		return nil
	},
	"virtual_tour_url": stringField(func(p *Property) *string { return &p.VirtualTourURL }, false),
	"video_url":        stringField(func(p *Property) *string { return &p.VideoURL }, false),
	"available":        boolField(func(p *Property) *bool { return &p.Available }),
	"featured":         boolField(func(p *Property) *bool { return &p.Featured }),
	"published":        boolField(func(p *Property) *bool { return &p.Published }),
}

// ApplyPropertyFields copies the recognised keys of fields onto p, coercing
// strings, numbers and booleans into the typed columns. It returns the
// columns written and the keys that were ignored, either because they are
// read-only or unknown. The first invalid value aborts with a validation
// error naming the field; p may then be partially modified.
func ApplyPropertyFields(p *Property, fields map[string]any) (applied []string, ignored []string, err error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		set, ok := propertyFields[key]
		if !ok || readOnlyPropertyFields[key] {
			ignored = append(ignored, key)
			continue
		}
		if err := set(p, fields[key]); err != nil {
			return nil, nil, apperror.Validationf(key, "%s %v", key, err)
		}
		applied = append(applied, key)
	}
	return applied, ignored, nil
}

// NewPropertyFromFields validates the required keys and builds a listing
// starting from the NewProperty defaults.
func NewPropertyFromFields(fields map[string]any) (*Property, []string, error) {
	for _, key := range RequiredPropertyFields {
		if isBlank(fields[key]) {
			return nil, nil, apperror.Validationf(key, "%s is required", key)
		}
	}

	p := NewProperty()
	_, ignored, err := ApplyPropertyFields(p, fields)
	if err != nil {
		return nil, nil, err
	}
	return p, ignored, nil
}

// WritablePropertyFields lists the keys ApplyPropertyFields accepts.
func WritablePropertyFields() []string {
	out := make([]string, 0, len(propertyFields))
	for k := range propertyFields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func stringField(get func(*Property) *string, required bool) fieldSetter {
	return func(p *Property, v any) error {
		s, err := asString(v)
		if err != nil {
			return err
		}
		if required && s == "" {
			return errRequired
		}
		*get(p) = s
		return nil
	}
}

func countField(get func(*Property) *int) fieldSetter {
	return func(p *Property, v any) error {
		if isBlank(v) {
			*get(p) = 0
			return nil
		}
		n, err := asInt(v)
		if err != nil {
			return err
		}
		if n < 0 {
			return errNegative
		}
		*get(p) = n
		return nil
	}
}

func boolField(get func(*Property) *bool) fieldSetter {
	return func(p *Property, v any) error {
		b, err := asBool(v)
		if err != nil {
			return err
		}
		*get(p) = b
		return nil
	}
}

func optionalFloat(v any, lo, hi float64) (*float64, error) {
	if isBlank(v) {
		return nil, nil
	}
	f, err := asFloat(v)
	if err != nil {
		return nil, err
	}
	if f < lo || f > hi {
		return nil, errOutOfRange
	}
	return &f, nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}
