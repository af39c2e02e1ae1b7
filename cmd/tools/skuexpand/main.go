// Command skuexpand prints the SKU list a product form would show for a set of
// variant axes.
//
//	skuexpand axes.yaml --default-price 120000
//	skuexpand axes.yaml --json
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pehlione.com/catalog/internal/modules/variants"
)

// axesFile is the YAML input. default_price is used unless --default-price is set.
type axesFile struct {
	DefaultPrice string          `yaml:"default_price"`
	Axes         []variants.Axis `yaml:"axes"`
}

type options struct {
	defaultPrice string
	asJSON       bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "skuexpand <axes.yaml>",
		Short: "Expand variant axes into SKUs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return run(cmd.OutOrStdout(), raw, opts)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&opts.defaultPrice, "default-price", "", "price for new SKUs (overrides the file)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func run(w io.Writer, raw []byte, opts options) error {
	var in axesFile
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("parse axes: %w", err)
	}

	priceText := in.DefaultPrice
	if opts.defaultPrice != "" {
		priceText = opts.defaultPrice
	}
	price := decimal.Zero
	if priceText != "" {
		p, err := decimal.NewFromString(strings.TrimSpace(priceText))
		if err != nil {
			return fmt.Errorf("default price %q: %w", priceText, err)
		}
		price = p
	}

	skus := variants.Expand(in.Axes, nil, price)

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(skus)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKEY\tPRICE\tSTOCK")
	for i, s := range skus {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i+1, s.CombinationKey, s.EffectivePrice(price).String(), s.Stock)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d SKU(s)\n", len(skus))
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
