package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/price-tracker/internal/catalog"
	"github.com/sells-group/price-tracker/internal/model"
	"github.com/sells-group/price-tracker/internal/scrape"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a product to the catalog",
	Example: `  price-tracker add --name "Corsair 32GB DDR5" --category Memory --model CMH32GX5M2M6000Z36 \
    --source microcenter=https://www.microcenter.com/product/688526 \
    --source newegg=https://www.newegg.com/p/N82E16820236947`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		category, _ := cmd.Flags().GetString("category")
		mdl, _ := cmd.Flags().GetString("model")
		pairs, _ := cmd.Flags().GetStringArray("source")
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		sources, err := parseSources(pairs)
		if err != nil {
			return err
		}

		d := scrape.NewDefaultDispatcher(cfg.Scrape.DispatcherOptions())
		for src, s := range sources {
			if d.Route(s.URL) == nil {
				zap.L().Warn("source url has no extractor and will be skipped by update",
					zap.String("source", src),
					zap.String("url", s.URL),
					zap.Strings("supported", d.Domains()),
				)
			}
		}

		product := &model.Product{Model: mdl, Category: category, Sources: sources}
		added, err := catalog.AddProduct(cfg.Catalog.Path, name, product, overwrite)
		if err != nil {
			return eris.Wrap(err, "add")
		}
		if !added {
			return eris.Errorf("add: product %q already exists (use --overwrite to replace it)", name)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %q with %d source(s) to %s\n", name, len(sources), cfg.Catalog.Path)
		return nil
	},
}

func init() {
	addCmd.Flags().String("name", "", "product display name")
	addCmd.Flags().String("category", "", "product category")
	addCmd.Flags().String("model", "", "manufacturer model number")
	addCmd.Flags().StringArray("source", nil, "retailer source as name=url (repeatable)")
	addCmd.Flags().Bool("overwrite", false, "replace an existing product with the same name")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(addCmd)
}

// parseSources turns name=url pairs into empty-history sources. Names are
// lowercased so they line up with existing catalog keys.
func parseSources(pairs []string) (map[string]*model.Source, error) {
	sources := make(map[string]*model.Source, len(pairs))
	for _, pair := range pairs {
		name, url, ok := strings.Cut(pair, "=")
		name, url = strings.ToLower(strings.TrimSpace(name)), strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, eris.Errorf("add: invalid --source %q, want name=url", pair)
		}
		if _, dup := sources[name]; dup {
			return nil, eris.Errorf("add: duplicate source %q", name)
		}
		sources[name] = &model.Source{URL: url, Prices: []model.Observation{}}
	}
	return sources, nil
}
