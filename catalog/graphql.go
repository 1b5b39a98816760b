package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
)

const transportLabelGraphQL = "graphql"

// Schema is the GraphQL schema served at /graphql. Field names follow the
// original mobile client, which mixes snake_case and camelCase.
const Schema = `
schema {
	query: Query
}

type Query {
	products(limit: Int): [Product!]!
	packages(limit: Int): [PackageProduct!]!
	resellers: [Reseller!]!
	limitedResellers: [Reseller!]!
	searchResellersByName(query: String!): [Reseller!]!
	searchResellersByCity(query: String!): [Reseller!]!
}

type Product {
	id: ID!
	product_name: String!
	description: String!
	price: Float!
	image_data: String
}

type PackageProduct {
	id: ID!
	packageName: String!
	items: [String!]!
	price: Float!
	image_data: String
}

type Reseller {
	id: ID!
	shop_name: String!
	profile_picture_url: String
	reseller_name: String!
	whatsapp_number: String
	facebook: String
	instagram: String
	city: String
	latitude: Float!
	longitude: Float!
}
`

type queryResolver struct {
	s *Server
}

type limitArgs struct {
	Limit *int32
}

func (a limitArgs) value() int {
	if a.Limit == nil || *a.Limit < 0 {
		return 0
	}
	return int(*a.Limit)
}

type searchArgs struct {
	Query string
}

func (q *queryResolver) observe(operation string, start time.Time, err error, public string) error {
	q.s.metrics.observe(transportLabelGraphQL, operation, start, err)
	if err != nil {
		q.s.logger.Error().Err(err).Str("operation", operation).Msg("Failed to resolve")
		return errors.New(public)
	}
	return nil
}

func (q *queryResolver) Products(ctx context.Context, args limitArgs) ([]*productResolver, error) {
	start := time.Now()
	products, err := q.s.service.Products(ctx, args.value())
	if err := q.observe("products", start, err, "Failed to fetch products"); err != nil {
		return nil, err
	}
	out := make([]*productResolver, len(products))
	for i := range products {
		out[i] = &productResolver{p: products[i]}
	}
	return out, nil
}

func (q *queryResolver) Packages(ctx context.Context, args limitArgs) ([]*packageResolver, error) {
	start := time.Now()
	packages, err := q.s.service.Packages(ctx, args.value())
	if err := q.observe("packages", start, err, "Failed to fetch packages"); err != nil {
		return nil, err
	}
	out := make([]*packageResolver, len(packages))
	for i := range packages {
		out[i] = &packageResolver{p: packages[i]}
	}
	return out, nil
}

func (q *queryResolver) Resellers(ctx context.Context) ([]*resellerResolver, error) {
	start := time.Now()
	resellers, err := q.s.service.Resellers(ctx)
	if err := q.observe("resellers", start, err, "Failed to fetch resellers"); err != nil {
		return nil, err
	}
	return resellerResolvers(resellers), nil
}

func (q *queryResolver) LimitedResellers(ctx context.Context) ([]*resellerResolver, error) {
	start := time.Now()
	resellers, err := q.s.service.LimitedResellers(ctx)
	if err := q.observe("limited_resellers", start, err, "Failed to fetch limited resellers"); err != nil {
		return nil, err
	}
	return resellerResolvers(resellers), nil
}

func (q *queryResolver) SearchResellersByName(ctx context.Context, args searchArgs) ([]*resellerResolver, error) {
	start := time.Now()
	resellers, err := q.s.service.SearchResellersByName(ctx, args.Query)
	if err := q.observe("search_by_name", start, err, "Failed to search resellers by name"); err != nil {
		return nil, err
	}
	return resellerResolvers(resellers), nil
}

func (q *queryResolver) SearchResellersByCity(ctx context.Context, args searchArgs) ([]*resellerResolver, error) {
	start := time.Now()
	resellers, err := q.s.service.SearchResellersByCity(ctx, args.Query)
	if err := q.observe("search_by_city", start, err, "Failed to search resellers by city"); err != nil {
		return nil, err
	}
	return resellerResolvers(resellers), nil
}

func resellerResolvers(resellers []Reseller) []*resellerResolver {
	out := make([]*resellerResolver, len(resellers))
	for i := range resellers {
		out[i] = &resellerResolver{r: resellers[i]}
	}
	return out
}

func toID(id int) graphql.ID {
	return graphql.ID(strconv.Itoa(id))
}

type productResolver struct {
	p Product
}

func (r *productResolver) ID() graphql.ID      { return toID(r.p.ID) }
func (r *productResolver) ProductName() string { return r.p.ProductName }
func (r *productResolver) Description() string { return r.p.Description }
func (r *productResolver) Price() float64      { return r.p.Price }
func (r *productResolver) ImageData() *string  { return r.p.ImageData }

type packageResolver struct {
	p PackageProduct
}

func (r *packageResolver) ID() graphql.ID      { return toID(r.p.ID) }
func (r *packageResolver) PackageName() string { return r.p.PackageName }
func (r *packageResolver) Price() float64      { return r.p.Price }
func (r *packageResolver) ImageData() *string  { return r.p.ImageData }

func (r *packageResolver) Items() []string {
	if r.p.Items == nil {
		return []string{}
	}
	return r.p.Items
}

type resellerResolver struct {
	r Reseller
}

func (r *resellerResolver) ID() graphql.ID             { return toID(r.r.ID) }
func (r *resellerResolver) ShopName() string           { return r.r.ShopName }
func (r *resellerResolver) ProfilePictureURL() *string { return r.r.ProfilePictureURL }
func (r *resellerResolver) ResellerName() string       { return r.r.ResellerName }
func (r *resellerResolver) WhatsappNumber() *string    { return r.r.WhatsappNumber }
func (r *resellerResolver) Facebook() *string          { return r.r.Facebook }
func (r *resellerResolver) Instagram() *string         { return r.r.Instagram }
func (r *resellerResolver) City() *string              { return r.r.City }
func (r *resellerResolver) Latitude() float64          { return r.r.Latitude }
func (r *resellerResolver) Longitude() float64         { return r.r.Longitude }
