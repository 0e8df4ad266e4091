package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Property Types
type PropertyType string

const (
	PropertyTypeApartment  PropertyType = "Apartment"
	PropertyTypeVilla      PropertyType = "Villa"
	PropertyTypeHouse      PropertyType = "House"
	PropertyTypeTownhouse  PropertyType = "Townhouse"
	PropertyTypePenthouse  PropertyType = "Penthouse"
	PropertyTypeStudio     PropertyType = "Studio"
	PropertyTypeLand       PropertyType = "Land"
	PropertyTypeCommercial PropertyType = "Commercial"
	PropertyTypeOffice     PropertyType = "Office"
)

var PropertyTypes = []PropertyType{
	PropertyTypeApartment,
	PropertyTypeVilla,
	PropertyTypeHouse,
	PropertyTypeTownhouse,
	PropertyTypePenthouse,
	PropertyTypeStudio,
	PropertyTypeLand,
	PropertyTypeCommercial,
	PropertyTypeOffice,
}

// Property Status
type PropertyStatus string

const (
	PropertyStatusForSale       PropertyStatus = "For Sale"
	PropertyStatusForRent       PropertyStatus = "For Rent"
	PropertyStatusSold          PropertyStatus = "Sold"
	PropertyStatusRented        PropertyStatus = "Rented"
	PropertyStatusUnderContract PropertyStatus = "Under Contract"
	PropertyStatusOffPlan       PropertyStatus = "Off Plan"
)

var PropertyStatuses = []PropertyStatus{
	PropertyStatusForSale,
	PropertyStatusForRent,
	PropertyStatusSold,
	PropertyStatusRented,
	PropertyStatusUnderContract,
	PropertyStatusOffPlan,
}

// Currency Types
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyAED Currency = "AED"
	CurrencyTRY Currency = "TRY"
)

var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyAED, CurrencyTRY}

const DefaultSizeUnit = "sqm"

// Image is one entry of a property's gallery.
type Image struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
	Order     int    `json:"order"`
}

type Property struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	UUID  string `json:"uuid" gorm:"size:36;uniqueIndex;not null"`
	Slug  string `json:"slug" gorm:"uniqueIndex;not null"`
	Title string `json:"title" gorm:"not null"`

	Type     PropertyType   `json:"type" gorm:"index;not null"`
	Status   PropertyStatus `json:"status" gorm:"index;not null"`
	Price    float64        `json:"price" gorm:"not null"`
	Currency Currency       `json:"currency" gorm:"size:3;not null;default:'USD'"`

	// Location fields
	LocationArea    string   `json:"location_area" gorm:"not null"`
	LocationCity    string   `json:"location_city" gorm:"index;not null"`
	LocationCountry string   `json:"location_country"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`

	// Physical attributes
	Bedrooms  int     `json:"bedrooms" gorm:"not null;default:0"`
	Bathrooms int     `json:"bathrooms" gorm:"not null;default:0"`
	Parking   int     `json:"parking" gorm:"not null;default:0"`
	Size      float64 `json:"size" gorm:"not null;default:0"`
	SizeUnit  string  `json:"size_unit" gorm:"size:10;not null;default:'sqm'"`
	YearBuilt *int    `json:"year_built"`
	Furnished bool    `json:"furnished" gorm:"not null;default:false"`

	// Content
	Description      string                      `json:"description" gorm:"type:text"`
	ShortDescription string                      `json:"short_description"`
	Amenities        datatypes.JSONSlice[string] `json:"amenities"`
	Features         datatypes.JSONMap           `json:"features"`
	Images           datatypes.JSONSlice[Image]  `json:"images"`
	VideoURLs        datatypes.JSONSlice[string] `json:"video_urls" gorm:"column:video_urls"`
	VirtualTourURL   string                      `json:"virtual_tour_url"`
	VideoURL         string                      `json:"video_url"`

	// Visibility
	Available bool `json:"available" gorm:"not null"`
	Featured  bool `json:"featured" gorm:"index;not null;default:false"`
	Published bool `json:"published" gorm:"index;not null"`

	ViewsCount int64     `json:"views_count" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewProperty returns a property with the visibility defaults a fresh
// listing starts with.
func NewProperty() *Property {
	return &Property{
		Currency:  CurrencyUSD,
		SizeUnit:  DefaultSizeUnit,
		Available: true,
		Published: true,
		Amenities: datatypes.JSONSlice[string]{},
		Features:  datatypes.JSONMap{},
		Images:    datatypes.JSONSlice[Image]{},
		VideoURLs: datatypes.JSONSlice[string]{},
	}
}

// BeforeCreate assigns the UUID and a unique slug derived from the title.
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	if p.Slug == "" {
		p.Slug = slug.Make(p.Title)
	}
	if p.Slug == "" {
		p.Slug = p.UUID
	}

	var count int64
	if err := tx.Model(&Property{}).Where("slug = ?", p.Slug).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		p.Slug = fmt.Sprintf("%s-%s", p.Slug, p.UUID[:8])
	}
	return nil
}

// PrimaryImage returns the image flagged primary, else the first by order.
func (p *Property) PrimaryImage() string {
	best := -1
	for i, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
		if best == -1 || img.Order < p.Images[best].Order {
			best = i
		}
	}
	if best == -1 {
		return ""
	}
	return p.Images[best].URL
}

func ValidPropertyType(t string) bool {
	for _, v := range PropertyTypes {
		if string(v) == t {
			return true
		}
	}
	return false
}

func ValidPropertyStatus(s string) bool {
	for _, v := range PropertyStatuses {
		if string(v) == s {
			return true
		}
	}
	return false
}

func ValidCurrency(c string) bool {
	for _, v := range Currencies {
		if string(v) == c {
			return true
		}
	}
	return false
}
