package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/scout-labs/tradescout/client"
	"github.com/scout-labs/tradescout/models"
)

const defaultAPIBase = "http://127.0.0.1:8080/api"

func main() {
	query := flag.String("query", "", "product to search for (required)")
	maxResults := flag.Int("max", client.DefaultMaxResults, "maximum results (10, 20, 30 or 50)")
	export := flag.String("export", "none", "export format: none, excel, json or both")
	outDir := flag.String("out", ".", "directory for exported files")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "request timeout")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *query == "" {
		fmt.Fprintln(os.Stderr, "scoutctl: -query is required")
		flag.Usage()
		os.Exit(2)
	}

	formats, err := exportFormats(*export)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scoutctl: %v\n", err)
		os.Exit(2)
	}

	base := os.Getenv("SCOUT_API_BASE")
	if base == "" {
		base = defaultAPIBase
	}

	api := client.NewAPI(base, client.Policy{Timeout: *timeout})
	orch := client.NewOrchestrator(api, &client.DirSaver{Dir: *outDir})

	ctx := context.Background()
	results, err := orch.Search(ctx, *query, *maxResults)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
		os.Exit(1)
	}

	printResults(results)

	for _, format := range formats {
		file, err := orch.Export(ctx, results, format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "export (%s) failed: %v\n", format, err)
			os.Exit(1)
		}
		fmt.Printf("exported %s\n", file.Filename)
	}
}

func exportFormats(arg string) ([]client.Format, error) {
	switch arg {
	case "none":
		return nil, nil
	case "both":
		return []client.Format{client.FormatExcel, client.FormatJSON}, nil
	default:
		format, err := client.ParseFormat(arg)
		if err != nil {
			return nil, err
		}
		return []client.Format{format}, nil
	}
}

func printResults(results *models.SearchResults) {
	fmt.Printf("%q — %d results (scraped %s)\n\n", results.ProductName, results.TotalResults, results.ScrapedAt)
	if len(results.Products) == 0 {
		fmt.Println("no products found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPRODUCT\tCOMPANY\tLOCATION\tPRICE")
	for i, p := range results.Products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i+1,
			cell(p, "Product Name"),
			cell(p, "Company Name"),
			cell(p, "Location"),
			cell(p, "Price (INR)"),
		)
	}
	w.Flush()
}

func cell(p models.ProductRecord, key string) string {
	v, ok := p.Field(key)
	if !ok {
		return models.NotAvailable
	}
	return v
}
