// Package transport gives REST and GraphQL a single asynchronous fetch
// surface. Both bindings decode into the catalog entity types, so callers
// never see wire differences.
package transport

import (
	"context"
	"fmt"

	"github.com/perfgo/apibench/catalog"
	"github.com/perfgo/apibench/model"
)

// RequestKind selects the catalog operation a Request performs.
type RequestKind int

const (
	KindProducts RequestKind = iota
	KindPackages
	KindResellers
	KindLimitedResellers
	KindSearchByName
	KindSearchByCity
)

func (k RequestKind) String() string {
	switch k {
	case KindProducts:
		return "products"
	case KindPackages:
		return "packages"
	case KindResellers:
		return "resellers"
	case KindLimitedResellers:
		return "limited_resellers"
	case KindSearchByName:
		return "search_by_name"
	case KindSearchByCity:
		return "search_by_city"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Request describes one catalog call. Limit 0 means no limit.
type Request struct {
	Kind  RequestKind
	Limit int
	Query string
}

func ProductsRequest(limit int) Request    { return Request{Kind: KindProducts, Limit: limit} }
func PackagesRequest(limit int) Request    { return Request{Kind: KindPackages, Limit: limit} }
func ResellersRequest() Request            { return Request{Kind: KindResellers} }
func LimitedResellersRequest() Request     { return Request{Kind: KindLimitedResellers} }
func SearchByNameRequest(q string) Request { return Request{Kind: KindSearchByName, Query: q} }
func SearchByCityRequest(q string) Request { return Request{Kind: KindSearchByCity, Query: q} }

// Response carries the decoded entities of one call. Only the slice matching
// the request kind is populated. Bytes is the size of the response body as
// received.
type Response struct {
	Products  []catalog.Product
	Packages  []catalog.PackageProduct
	Resellers []catalog.Reseller
	Bytes     int64
}

// Count is the number of entities in the response.
func (r Response) Count() int {
	return len(r.Products) + len(r.Packages) + len(r.Resellers)
}

// Client performs a catalog request over one transport.
type Client interface {
	Transport() model.Transport
	Do(ctx context.Context, req Request) (Response, error)
}

// Fetch runs req on c in the background. The returned channel yields
// Loading, then one terminal value, then closes. Errors and panics inside
// the client become Error values.
func Fetch(ctx context.Context, c Client, req Request) <-chan Result[Response] {
	ch := make(chan Result[Response], 2)
	go func() {
		e := &emitter[Response]{out: ch}
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				_ = e.emit(Failure[Response](fmt.Sprint(r)))
			}
		}()

		_ = e.emit(Loading[Response]())
		resp, err := c.Do(ctx, req)
		if err != nil {
			_ = e.emit(Failure[Response](err.Error()))
			return
		}
		_ = e.emit(Success(resp))
	}()
	return ch
}

// Await drains stream and returns its terminal value. A cancelled ctx or a
// stream closed early yields an Error value.
func Await(ctx context.Context, stream <-chan Result[Response]) Result[Response] {
	for {
		select {
		case <-ctx.Done():
			return Failure[Response](ctx.Err().Error())
		case r, ok := <-stream:
			if !ok {
				return Failure[Response](ErrNoResult.Error())
			}
			if r.Terminal() {
				return r
			}
		}
	}
}

// Call is Fetch followed by Await.
func Call(ctx context.Context, c Client, req Request) Result[Response] {
	return Await(ctx, Fetch(ctx, c, req))
}
