//go:build ignore

// Writes gzip promo code lists for local runs of the promo catalog:
//
//	go run scripts/generate_promo_catalog.go -dir data
//	PROMO_CATALOG_FILES=promo1.gz,promo2.gz,promo3.gz PROMO_CATALOG_MIN_MATCH=2
//
// With a minimum match of 2, WELCOME, FREEDRINK, LUNCH10 and FAMILY15 are
// accepted while SOLO1, SOLO2 and SOLO3 are not.
package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
)

var catalogs = map[string][]string{
	"promo1.gz": {"WELCOME", "FREEDRINK", "LUNCH10", "SOLO1"},
	"promo2.gz": {"WELCOME", "FREEDRINK", "FAMILY15", "SOLO2"},
	"promo3.gz": {"WELCOME", "LUNCH10", "FAMILY15", "SOLO3"},
}

func main() {
	dir := flag.String("dir", "data", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("failed to create %s: %v", *dir, err)
	}

	names := make([]string, 0, len(catalogs))
	for name := range catalogs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(*dir, name)
		if err := writeCodeList(path, catalogs[name]); err != nil {
			log.Fatalf("failed to write %s: %v", path, err)
		}
		fmt.Printf("wrote %s (%d codes)\n", path, len(catalogs[name]))
	}
}

func writeCodeList(path string, codes []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	for _, code := range codes {
		if _, err := fmt.Fprintln(gz, code); err != nil {
			return fmt.Errorf("failed to write code: %w", err)
		}
	}
	return gz.Close()
}
