package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/slug"
)

//go:embed seed.json
var seedJSON []byte

// Format identifies the encoding of a catalog document.
type Format string

// Supported catalog formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// productDoc is the on-disk shape of a product. Prices are plain numbers in
// catalog files and are converted to decimals on load.
type productDoc struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	Category      string   `json:"category" yaml:"category"`
	Price         float64  `json:"price" yaml:"price"`
	OriginalPrice *float64 `json:"originalPrice" yaml:"originalPrice"`
	Rating        float64  `json:"rating" yaml:"rating"`
	Reviews       int      `json:"reviews" yaml:"reviews"`
	InStock       bool     `json:"inStock" yaml:"inStock"`
	Image         string   `json:"image" yaml:"image"`
	Images        []string `json:"images" yaml:"images"`
	Features      []string `json:"features" yaml:"features"`
}

func (d productDoc) toDomain() domain.Product {
	p := domain.Product{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Category:      slug.Generate(d.Category),
		CategoryLabel: strings.TrimSpace(d.Category),
		Price:         decimal.NewFromFloat(d.Price),
		Rating:        d.Rating,
		Reviews:       d.Reviews,
		InStock:       d.InStock,
		Image:         d.Image,
		Images:        d.Images,
		Features:      d.Features,
	}
	if d.OriginalPrice != nil {
		op := decimal.NewFromFloat(*d.OriginalPrice)
		p.OriginalPrice = &op
	}
	return p
}

// Seed returns the bundled development catalog.
func Seed() (*Catalog, error) {
	return Parse(seedJSON, FormatJSON)
}

// MustSeed is like Seed but panics on error. It is intended for tests.
func MustSeed() *Catalog {
	c, err := Seed()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog file. The format is chosen from the file extension;
// .yaml and .yml are YAML, anything else is JSON.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document. The document is a list of products.
// Category names are reduced to slugs, so "Home & Garden" filters as
// "home-garden". The name itself is kept as the label that search matches.
func Parse(data []byte, format Format) (*Catalog, error) {
	var docs []productDoc
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toDomain())
	}
	return New(products)
}
