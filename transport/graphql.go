package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/perfgo/apibench/catalog"
	"github.com/perfgo/apibench/model"
	"github.com/rs/zerolog"
)

const unknownGraphQLError = "Unknown GraphQL error"

const (
	productFields  = `id product_name description price image_data`
	packageFields  = `id packageName items price image_data`
	resellerFields = `id shop_name profile_picture_url reseller_name whatsapp_number facebook instagram city latitude longitude`
)

var graphQLQueries = map[RequestKind]string{
	KindProducts:         `query Products($limit: Int) { products(limit: $limit) { ` + productFields + ` } }`,
	KindPackages:         `query Packages($limit: Int) { packages(limit: $limit) { ` + packageFields + ` } }`,
	KindResellers:        `query Resellers { resellers { ` + resellerFields + ` } }`,
	KindLimitedResellers: `query LimitedResellers { limitedResellers { ` + resellerFields + ` } }`,
	KindSearchByName:     `query SearchByName($query: String!) { searchResellersByName(query: $query) { ` + resellerFields + ` } }`,
	KindSearchByCity:     `query SearchByCity($query: String!) { searchResellersByCity(query: $query) { ` + resellerFields + ` } }`,
}

// GraphQLError carries the first error message of a GraphQL response.
type GraphQLError struct {
	Message string
}

func (e *GraphQLError) Error() string {
	return e.Message
}

// GraphQLClient posts queries to a single GraphQL endpoint.
type GraphQLClient struct {
	logger   zerolog.Logger
	endpoint string
	http     *http.Client
}

func NewGraphQL(logger zerolog.Logger, endpoint string, httpClient *http.Client) *GraphQLClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GraphQLClient{
		logger:   logger.With().Str("transport", string(model.TransportGraphQL)).Logger(),
		endpoint: endpoint,
		http:     httpClient,
	}
}

func (c *GraphQLClient) Transport() model.Transport {
	return model.TransportGraphQL
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   *graphQLData `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type graphQLData struct {
	Products              []wireProduct  `json:"products"`
	Packages              []wirePackage  `json:"packages"`
	Resellers             []wireReseller `json:"resellers"`
	LimitedResellers      []wireReseller `json:"limitedResellers"`
	SearchResellersByName []wireReseller `json:"searchResellersByName"`
	SearchResellersByCity []wireReseller `json:"searchResellersByCity"`
}

type wireProduct struct {
	ID          string  `json:"id"`
	ProductName string  `json:"product_name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageData   *string `json:"image_data"`
}

type wirePackage struct {
	ID          string   `json:"id"`
	PackageName string   `json:"packageName"`
	Items       []string `json:"items"`
	Price       float64  `json:"price"`
	ImageData   *string  `json:"image_data"`
}

type wireReseller struct {
	ID                string  `json:"id"`
	ShopName          string  `json:"shop_name"`
	ProfilePictureURL *string `json:"profile_picture_url"`
	ResellerName      string  `json:"reseller_name"`
	WhatsappNumber    *string `json:"whatsapp_number"`
	Facebook          *string `json:"facebook"`
	Instagram         *string `json:"instagram"`
	City              *string `json:"city"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
}

func (c *GraphQLClient) body(req Request) ([]byte, error) {
	query, ok := graphQLQueries[req.Kind]
	if !ok {
		return nil, fmt.Errorf("unsupported request kind %s", req.Kind)
	}
	gr := graphQLRequest{Query: query}
	switch req.Kind {
	case KindProducts, KindPackages:
		if req.Limit > 0 {
			gr.Variables = map[string]any{"limit": req.Limit}
		}
	case KindSearchByName, KindSearchByCity:
		gr.Variables = map[string]any{"query": req.Query}
	}
	return json.Marshal(gr)
}

func (c *GraphQLClient) Do(ctx context.Context, req Request) (Response, error) {
	payload, err := c.body(req)
	if err != nil {
		return Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("operation", req.Kind.String()).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("GraphQL response")

	var gr graphQLResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return Response{}, &StatusError{Code: resp.StatusCode}
		}
		return Response{}, fmt.Errorf("failed to decode %s response: %w", req.Kind, err)
	}
	if len(gr.Errors) > 0 {
		msg := gr.Errors[0].Message
		if msg == "" {
			msg = unknownGraphQLError
		}
		return Response{}, &GraphQLError{Message: msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &StatusError{Code: resp.StatusCode}
	}
	if gr.Data == nil {
		return Response{}, &GraphQLError{Message: unknownGraphQLError}
	}

	out := Response{Bytes: int64(len(body))}
	d := gr.Data
	switch req.Kind {
	case KindProducts:
		out.Products, err = convertAll(d.Products, wireProduct.entity)
	case KindPackages:
		out.Packages, err = convertAll(d.Packages, wirePackage.entity)
	case KindResellers:
		out.Resellers, err = convertAll(d.Resellers, wireReseller.entity)
	case KindLimitedResellers:
		out.Resellers, err = convertAll(d.LimitedResellers, wireReseller.entity)
	case KindSearchByName:
		out.Resellers, err = convertAll(d.SearchResellersByName, wireReseller.entity)
	case KindSearchByCity:
		out.Resellers, err = convertAll(d.SearchResellersByCity, wireReseller.entity)
	}
	if err != nil {
		return Response{}, err
	}
	return out, nil
}

var errInvalidID = errors.New("invalid id")

func parseID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("%w %q", errInvalidID, id)
	}
	return n, nil
}

func convertAll[W, E any](in []W, conv func(W) (E, error)) ([]E, error) {
	out := make([]E, 0, len(in))
	for _, w := range in {
		e, err := conv(w)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (w wireProduct) entity() (catalog.Product, error) {
	id, err := parseID(w.ID)
	if err != nil {
		return catalog.Product{}, err
	}
	return catalog.Product{
		ID:          id,
		ProductName: w.ProductName,
		Description: w.Description,
		Price:       w.Price,
		ImageData:   w.ImageData,
	}, nil
}

func (w wirePackage) entity() (catalog.PackageProduct, error) {
	id, err := parseID(w.ID)
	if err != nil {
		return catalog.PackageProduct{}, err
	}
	items := w.Items
	if items == nil {
		items = []string{}
	}
	return catalog.PackageProduct{
		ID:          id,
		PackageName: w.PackageName,
		Items:       items,
		Price:       w.Price,
		ImageData:   w.ImageData,
	}, nil
}

func (w wireReseller) entity() (catalog.Reseller, error) {
	id, err := parseID(w.ID)
	if err != nil {
		return catalog.Reseller{}, err
	}
	return catalog.Reseller{
		ID:                id,
		ShopName:          w.ShopName,
		ProfilePictureURL: w.ProfilePictureURL,
		ResellerName:      w.ResellerName,
		WhatsappNumber:    w.WhatsappNumber,
		Facebook:          w.Facebook,
		Instagram:         w.Instagram,
		City:              w.City,
		Latitude:          w.Latitude,
		Longitude:         w.Longitude,
	}, nil
}
