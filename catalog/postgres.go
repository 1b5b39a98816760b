package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

const (
	productColumns  = "SELECT id, product_name, description, price, image_data FROM individual_products"
	packageColumns  = "SELECT id, package_name, items, price, image_data FROM package_products"
	resellerColumns = "SELECT id, shop_name, profile_picture_url, reseller_name, whatsapp_number, facebook, instagram, city, latitude, longitude FROM resellers"
)

// PostgresStore reads the catalog schema used by the original backend.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects using a lib/pq DSN and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewPostgresStore(db), nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func withLimit(query string, limit int) (string, []any) {
	if limit > 0 {
		return query + " LIMIT $1", []any{limit}
	}
	return query, nil
}

func (s *PostgresStore) Products(ctx context.Context, limit int) ([]Product, error) {
	query, args := withLimit(productColumns, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		var image sql.NullString
		if err := rows.Scan(&p.ID, &p.ProductName, &p.Description, &p.Price, &image); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.ImageData = nullString(image)
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresStore) Packages(ctx context.Context, limit int) ([]PackageProduct, error) {
	query, args := withLimit(packageColumns, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query packages: %w", err)
	}
	defer rows.Close()

	packages := []PackageProduct{}
	for rows.Next() {
		var p PackageProduct
		var items string
		var image sql.NullString
		if err := rows.Scan(&p.ID, &p.PackageName, &items, &p.Price, &image); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		if p.Items, err = DecodeItems(items); err != nil {
			return nil, fmt.Errorf("package %d: %w", p.ID, err)
		}
		p.ImageData = nullString(image)
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

func (s *PostgresStore) Resellers(ctx context.Context) ([]Reseller, error) {
	return s.queryResellers(ctx, resellerColumns+" ORDER BY id")
}

// likeEscaper makes LIKE wildcards in a search query match literally, so
// searches agree with MemoryStore's substring match.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

func (s *PostgresStore) SearchResellersByName(ctx context.Context, query string) ([]Reseller, error) {
	return s.queryResellers(ctx,
		fmt.Sprintf("%s WHERE LOWER(reseller_name) LIKE LOWER($1) ESCAPE '!' LIMIT %d", resellerColumns, SearchLimit),
		containsPattern(query))
}

func (s *PostgresStore) SearchResellersByCity(ctx context.Context, query string) ([]Reseller, error) {
	return s.queryResellers(ctx,
		fmt.Sprintf("%s WHERE LOWER(city) LIKE LOWER($1) ESCAPE '!' LIMIT %d", resellerColumns, SearchLimit),
		containsPattern(query))
}

func (s *PostgresStore) queryResellers(ctx context.Context, query string, args ...any) ([]Reseller, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resellers: %w", err)
	}
	defer rows.Close()

	resellers := []Reseller{}
	for rows.Next() {
		var r Reseller
		var picture, whatsapp, facebook, instagram, city sql.NullString
		if err := rows.Scan(&r.ID, &r.ShopName, &picture, &r.ResellerName, &whatsapp,
			&facebook, &instagram, &city, &r.Latitude, &r.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan reseller: %w", err)
		}
		r.ProfilePictureURL = nullString(picture)
		r.WhatsappNumber = nullString(whatsapp)
		r.Facebook = nullString(facebook)
		r.Instagram = nullString(instagram)
		r.City = nullString(city)
		resellers = append(resellers, r)
	}
	return resellers, rows.Err()
}

// DecodeItems parses the YAML text stored in package_products.items. A list
// is returned as is, a single scalar becomes a one item list and an empty
// document an empty list.
func DecodeItems(text string) ([]string, error) {
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	switch items := v.(type) {
	case nil:
		return []string{}, nil
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	case string:
		if items == "" {
			return []string{}, nil
		}
		return []string{items}, nil
	default:
		return []string{fmt.Sprint(items)}, nil
	}
}

func nullString(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	return &s.String
}
