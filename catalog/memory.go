package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/default.yaml
var defaultFixtures []byte

// Fixtures is the YAML document a MemoryStore is loaded from.
type Fixtures struct {
	Products  []Product        `yaml:"products"`
	Packages  []PackageProduct `yaml:"packages"`
	Resellers []Reseller       `yaml:"resellers"`
}

// LoadFixtures decodes a fixtures document.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	return &f, nil
}

// DefaultFixtures returns the small built-in demo catalog.
func DefaultFixtures() *Fixtures {
	f, err := LoadFixtures(bytes.NewReader(defaultFixtures))
	if err != nil {
		panic(err)
	}
	return f
}

// MemoryStore serves a fixed catalog from memory. It is safe for concurrent
// use since it never mutates after construction.
type MemoryStore struct {
	products  []Product
	packages  []PackageProduct
	resellers []Reseller
}

func NewMemoryStore(f *Fixtures) *MemoryStore {
	resellers := slices.Clone(f.Resellers)
	slices.SortStableFunc(resellers, func(a, b Reseller) int { return a.ID - b.ID })
	return &MemoryStore{
		products:  slices.Clone(f.Products),
		packages:  slices.Clone(f.Packages),
		resellers: resellers,
	}
}

func (s *MemoryStore) Products(_ context.Context, limit int) ([]Product, error) {
	return head(s.products, limit), nil
}

func (s *MemoryStore) Packages(_ context.Context, limit int) ([]PackageProduct, error) {
	return head(s.packages, limit), nil
}

func (s *MemoryStore) Resellers(_ context.Context) ([]Reseller, error) {
	return slices.Clone(s.resellers), nil
}

func (s *MemoryStore) SearchResellersByName(_ context.Context, query string) ([]Reseller, error) {
	return s.search(query, func(r Reseller) string { return r.ResellerName }), nil
}

func (s *MemoryStore) SearchResellersByCity(_ context.Context, query string) ([]Reseller, error) {
	return s.search(query, func(r Reseller) string {
		if r.City == nil {
			return ""
		}
		return *r.City
	}), nil
}

func (s *MemoryStore) search(query string, field func(Reseller) string) []Reseller {
	needle := strings.ToLower(query)
	out := []Reseller{}
	for _, r := range s.resellers {
		if strings.Contains(strings.ToLower(field(r)), needle) {
			out = append(out, r)
			if len(out) == SearchLimit {
				break
			}
		}
	}
	return out
}

func head[T any](in []T, limit int) []T {
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return slices.Clone(in)
}
