package seed

import (
	"time"

	"realty_backend/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

// Properties returns the sample listings. Each call returns fresh values.
func Properties() []model.Property {
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	return []model.Property{
		{
			ID:               1,
			Slug:             "marina-view-apartment",
			Title:            "Marina View Apartment",
			Type:             model.PropertyTypeApartment,
			Status:           model.PropertyStatusForSale,
			Price:            1250000,
			Currency:         model.CurrencyAED,
			LocationArea:     "Dubai Marina",
			LocationCity:     "Dubai",
			LocationCountry:  "United Arab Emirates",
			Latitude:         ptr(25.0805),
			Longitude:        ptr(55.1403),
			Bedrooms:         2,
			Bathrooms:        2,
			Parking:          1,
			Size:             120,
			SizeUnit:         model.DefaultSizeUnit,
			YearBuilt:        ptr(2016),
			Furnished:        true,
			ShortDescription: "Bright two bedroom apartment with full marina views.",
			Description:      "Corner unit on a high floor with floor to ceiling windows, a large balcony and direct access to the marina walk.",
			Amenities:        datatypes.JSONSlice[string]{"Pool", "Gym", "Concierge", "Balcony"},
			Features:         datatypes.JSONMap{"view": "Marina", "floor": 24},
			Images:           datatypes.JSONSlice[model.Image]{},
			VideoURLs:        datatypes.JSONSlice[string]{},
			Available:        true,
			Featured:         true,
			Published:        true,
			CreatedAt:        base,
			UpdatedAt:        base,
		},
		{
			ID:               2,
			Slug:             "palm-beach-villa",
			Title:            "Palm Beach Villa",
			Type:             model.PropertyTypeVilla,
			Status:           model.PropertyStatusForSale,
			Price:            8900000,
			Currency:         model.CurrencyAED,
			LocationArea:     "Palm Jumeirah",
			LocationCity:     "Dubai",
			LocationCountry:  "United Arab Emirates",
			Latitude:         ptr(25.1124),
			Longitude:        ptr(55.1390),
			Bedrooms:         5,
			Bathrooms:        6,
			Parking:          3,
			Size:             650,
			SizeUnit:         model.DefaultSizeUnit,
			YearBuilt:        ptr(2012),
			ShortDescription: "Frond villa with a private beach.",
			Description:      "Five bedroom villa with a private beach, infinity pool and landscaped garden.",
			Amenities:        datatypes.JSONSlice[string]{"Private Beach", "Pool", "Garden", "Maid's Room"},
			Features:         datatypes.JSONMap{"beach_access": true},
			Images:           datatypes.JSONSlice[model.Image]{},
			VideoURLs:        datatypes.JSONSlice[string]{},
			Available:        true,
			Featured:         true,
			Published:        true,
			CreatedAt:        base.Add(24 * time.Hour),
			UpdatedAt:        base.Add(24 * time.Hour),
		},
		{
			ID:               3,
			Slug:             "old-town-studio",
			Title:            "Old Town Studio",
			Type:             model.PropertyTypeStudio,
			Status:           model.PropertyStatusForRent,
			Price:            1800,
			Currency:         model.CurrencyEUR,
			LocationArea:     "Kaleici",
			LocationCity:     "Antalya",
			LocationCountry:  "Turkey",
			Latitude:         ptr(36.8841),
			Longitude:        ptr(30.7056),
			Bedrooms:         0,
			Bathrooms:        1,
			Size:             38,
			SizeUnit:         model.DefaultSizeUnit,
			Furnished:        true,
			ShortDescription: "Furnished studio inside the old town walls.",
			Description:      "Restored stone building, walking distance to the harbour. Monthly rental.",
			Amenities:        datatypes.JSONSlice[string]{"Air Conditioning", "Wi-Fi"},
			Features:         datatypes.JSONMap{},
			Images:           datatypes.JSONSlice[model.Image]{},
			VideoURLs:        datatypes.JSONSlice[string]{},
			Available:        true,
			Published:        true,
			CreatedAt:        base.Add(48 * time.Hour),
			UpdatedAt:        base.Add(48 * time.Hour),
		},
		{
			ID:               4,
			Slug:             "riverside-townhouse",
			Title:            "Riverside Townhouse",
			Type:             model.PropertyTypeTownhouse,
			Status:           model.PropertyStatusUnderContract,
			Price:            745000,
			Currency:         model.CurrencyGBP,
			LocationArea:     "Richmond",
			LocationCity:     "London",
			LocationCountry:  "United Kingdom",
			Bedrooms:         3,
			Bathrooms:        2,
			Parking:          1,
			Size:             1450,
			SizeUnit:         "sqft",
			YearBuilt:        ptr(1998),
			ShortDescription: "Three storey townhouse a short walk from the river.",
			Description:      "Family townhouse with a south facing garden and a garage.",
			Amenities:        datatypes.JSONSlice[string]{"Garden", "Garage"},
			Features:         datatypes.JSONMap{},
			Images:           datatypes.JSONSlice[model.Image]{},
			VideoURLs:        datatypes.JSONSlice[string]{},
			Available:        false,
			Published:        true,
			CreatedAt:        base.Add(72 * time.Hour),
			UpdatedAt:        base.Add(72 * time.Hour),
		},
	}
}

// SeedProperties inserts the sample listings that are missing, matched by slug.
func SeedProperties(db *gorm.DB, log *logrus.Logger) error {
	created := 0
	for _, p := range Properties() {
		p.ID = 0
		var existing model.Property
		result := db.Where(model.Property{Slug: p.Slug}).Attrs(p).FirstOrCreate(&existing)
		if result.Error != nil {
			log.WithError(result.Error).WithField("slug", p.Slug).Error("Error seeding property")
			return result.Error
		}
		if result.RowsAffected > 0 {
			created++
		}
	}
	log.WithField("created", created).Info("Sample properties seeded")
	return nil
}
