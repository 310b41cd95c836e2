package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/query"
	"github.com/utafrali/storefront/internal/view"
)

// Output formats for the catalog command.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// CatalogOptions holds the catalog command flags.
type CatalogOptions struct {
	Path     string
	Category string
	Search   string
	Sort     string
	Format   string
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand() *cobra.Command {
	opts := &CatalogOptions{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the derived product view for a selection",
		Long: `List products filtered by category and search term, in the chosen
sort order. Uses the bundled catalog unless --catalog points at a JSON or
YAML file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Path, "catalog", "", "catalog file (.json, .yaml)")
	cmd.Flags().StringVar(&opts.Category, "category", domain.CategoryAll, "category filter")
	cmd.Flags().StringVar(&opts.Search, "search", "", "search term")
	cmd.Flags().StringVar(&opts.Sort, "sort", string(domain.SortFeatured), "sort mode (featured|price-low|price-high|rating|newest)")
	cmd.Flags().StringVar(&opts.Format, "format", FormatTable, "output format (table|json)")

	return cmd
}

func runCatalog(opts *CatalogOptions, w io.Writer) error {
	if opts.Format != FormatTable && opts.Format != FormatJSON {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid format %q", opts.Format), nil)
	}
	if !domain.IsValidSort(opts.Sort) {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid sort %q", opts.Sort), nil)
	}

	cat, err := openCatalog(opts.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "load catalog", err)
	}

	sel := domain.Selection{
		Category:   opts.Category,
		SearchTerm: opts.Search,
		Sort:       domain.SortMode(opts.Sort),
	}.Normalize()
	products := query.DeriveView(cat.All(), sel)

	if opts.Format == FormatJSON {
		cards := make([]view.Card, 0, len(products))
		for _, p := range products {
			cards = append(cards, view.ProjectCard(p, false, false))
		}
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(cards)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tRATING\tSTOCK")
	for _, p := range products {
		stock := "in stock"
		if !p.InStock {
			stock = "out of stock"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%s\n", p.ID, p.Name, p.Category, view.Price(p.Price), p.Rating, stock)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, view.ResultsLabel(len(products)))
	return err
}

func openCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Seed()
	}
	return catalog.Load(path)
}
