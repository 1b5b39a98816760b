package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/perfgo/apibench/catalog"
	"github.com/perfgo/apibench/model"
	"github.com/rs/zerolog"
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error: %d", e.Code)
}

// RESTClient talks to the /api resource endpoints.
type RESTClient struct {
	logger  zerolog.Logger
	baseURL string
	http    *http.Client
}

// NewREST returns a client rooted at baseURL (e.g. http://host:3000/api).
func NewREST(logger zerolog.Logger, baseURL string, httpClient *http.Client) *RESTClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTClient{
		logger:  logger.With().Str("transport", string(model.TransportREST)).Logger(),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *RESTClient) Transport() model.Transport {
	return model.TransportREST
}

func (c *RESTClient) path(req Request) (string, error) {
	var p string
	switch req.Kind {
	case KindProducts:
		p = "/products"
	case KindPackages:
		p = "/packages"
	case KindResellers:
		p = "/resellers"
	case KindLimitedResellers:
		p = "/resellers/limited"
	case KindSearchByName:
		p = "/resellers/search/name/" + url.PathEscape(req.Query)
	case KindSearchByCity:
		p = "/resellers/search/city/" + url.PathEscape(req.Query)
	default:
		return "", fmt.Errorf("unsupported request kind %s", req.Kind)
	}
	if req.Limit > 0 {
		p += "?limit=" + strconv.Itoa(req.Limit)
	}
	return c.baseURL + p, nil
}

type restEnvelope struct {
	Products  []catalog.Product        `json:"products"`
	Packages  []catalog.PackageProduct `json:"packages"`
	Resellers []catalog.Reseller       `json:"resellers"`
}

func (c *RESTClient) Do(ctx context.Context, req Request) (Response, error) {
	target, err := c.path(req)
	if err != nil {
		return Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to build request: %w", err)
	}
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
		Str("url", target).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("REST response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &StatusError{Code: resp.StatusCode}
	}

	var env restEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Response{}, fmt.Errorf("failed to decode %s response: %w", req.Kind, err)
	}

	out := Response{Bytes: int64(len(body))}
	switch req.Kind {
	case KindProducts:
		out.Products = env.Products
	case KindPackages:
		out.Packages = env.Packages
	default:
		out.Resellers = env.Resellers
	}
	return out, nil
}
