// Package catalog holds the entities both transports serve and a reference
// backend exposing them over REST and GraphQL.
package catalog

import (
	"context"
	"math/rand/v2"
	"sync"
)

const (
	// SearchLimit caps reseller search results.
	SearchLimit = 50
	// MapResellerLimit is the size of the evenly distributed map subset.
	MapResellerLimit = 300
)

// Product is an individual product.
type Product struct {
	ID          int     `json:"id" yaml:"id"`
	ProductName string  `json:"product_name" yaml:"product_name"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	ImageData   *string `json:"image_data" yaml:"image_data,omitempty"`
}

// PackageProduct is a bundle of items sold together.
type PackageProduct struct {
	ID          int      `json:"id" yaml:"id"`
	PackageName string   `json:"package_name" yaml:"package_name"`
	Items       []string `json:"items" yaml:"items"`
	Price       float64  `json:"price" yaml:"price"`
	ImageData   *string  `json:"image_data" yaml:"image_data,omitempty"`
}

// Reseller is a location-tagged shop.
type Reseller struct {
	ID                int     `json:"id" yaml:"id"`
	ShopName          string  `json:"shop_name" yaml:"shop_name"`
	ProfilePictureURL *string `json:"profile_picture_url" yaml:"profile_picture_url,omitempty"`
	ResellerName      string  `json:"reseller_name" yaml:"reseller_name"`
	WhatsappNumber    *string `json:"whatsapp_number" yaml:"whatsapp_number,omitempty"`
	Facebook          *string `json:"facebook" yaml:"facebook,omitempty"`
	Instagram         *string `json:"instagram" yaml:"instagram,omitempty"`
	City              *string `json:"city" yaml:"city,omitempty"`
	Latitude          float64 `json:"latitude" yaml:"latitude"`
	Longitude         float64 `json:"longitude" yaml:"longitude"`
}

// Store reads catalog entities. A limit of 0 means no limit. Searches are
// case-insensitive substring matches capped at SearchLimit.
type Store interface {
	Products(ctx context.Context, limit int) ([]Product, error)
	Packages(ctx context.Context, limit int) ([]PackageProduct, error)
	// Resellers returns all resellers ordered by id.
	Resellers(ctx context.Context) ([]Reseller, error)
	SearchResellersByName(ctx context.Context, query string) ([]Reseller, error)
	SearchResellersByCity(ctx context.Context, query string) ([]Reseller, error)
}

// Service adds the evenly distributed map subset on top of a Store.
type Service struct {
	Store

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService wraps store. rng drives the map sampling; pass a seeded source
// for reproducible subsets.
func NewService(store Store, rng *rand.Rand) *Service {
	return &Service{Store: store, rng: rng}
}

// LimitedResellers returns at most MapResellerLimit resellers spread across
// the map grid.
func (s *Service) LimitedResellers(ctx context.Context) ([]Reseller, error) {
	all, err := s.Resellers(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Distribute(all, MapResellerLimit, s.rng), nil
}
