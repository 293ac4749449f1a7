package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/REPPL/itemdeck.app-sub011/pkg/collection"
	"github.com/REPPL/itemdeck.app-sub011/pkg/export"
	"github.com/REPPL/itemdeck.app-sub011/pkg/expr"
	"github.com/REPPL/itemdeck.app-sub011/pkg/fetch"
)

var (
	Version   = "v1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const usage = `Usage:
  itemdeck cards <base>                 list the cards of a collection
  itemdeck show <base> <id>             show one card
  itemdeck field <base> <id> <path>     evaluate a field-path expression
  itemdeck export <base>                write the cards as CSV to stdout

<base> is a directory or an http(s) URL containing collection.json
(or a legacy items.json / categories.json pair).`

func main() {
	if len(os.Args) < 3 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	base := os.Args[2]

	col, err := load(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "itemdeck: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "cards":
		for _, card := range collection.BuildCards(col) {
			line := fmt.Sprintf("%-24s %s", card.ID, card.Title)
			if card.Group != "" {
				line += fmt.Sprintf("  [%s]", card.Group)
			}
			if card.Degraded {
				line += "  (degraded)"
			}
			fmt.Println(line)
		}

	case "show":
		if len(os.Args) < 4 {
			fmt.Println(usage)
			os.Exit(1)
		}
		if err := show(col, os.Args[3]); err != nil {
			fmt.Fprintf(os.Stderr, "itemdeck: %v\n", err)
			os.Exit(1)
		}

	case "field":
		if len(os.Args) < 5 {
			fmt.Println(usage)
			os.Exit(1)
		}
		if err := field(col, os.Args[3], os.Args[4]); err != nil {
			fmt.Fprintf(os.Stderr, "itemdeck: %v\n", err)
			os.Exit(1)
		}

	case "export":
		if err := export.WriteCSV(os.Stdout, col); err != nil {
			fmt.Fprintf(os.Stderr, "itemdeck: export failed: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func load(base string) (*collection.Collection, error) {
	var f fetch.Fetcher
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		f = fetch.NewHTTP(base)
	} else {
		f = fetch.NewLocal(base)
	}
	return collection.NewLoader(f).Load(context.Background())
}

func show(col *collection.Collection, id string) error {
	e, ok := col.Graph.Lookup(col.Definition.PrimaryType, id)
	if !ok {
		return fmt.Errorf("no card with id %q", id)
	}

	fmt.Printf("%s (%s)\n", e.ID, e.Type)
	front, back := collection.Faces(e, col.Display())
	for slot, value := range front {
		fmt.Printf("  front.%s: %s\n", slot, value)
	}
	for slot, value := range back {
		fmt.Printf("  back.%s: %s\n", slot, value)
	}
	for _, w := range col.Warnings {
		if w.SourceID == e.ID && w.SourceType == e.Type {
			fmt.Printf("  warning: %s\n", w)
		}
	}
	return nil
}

func field(col *collection.Collection, id, path string) error {
	e, ok := col.Graph.Lookup(col.Definition.PrimaryType, id)
	if !ok {
		return fmt.Errorf("no card with id %q", id)
	}
	v, found, err := expr.ResolveValue(e, path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if !found {
		fmt.Println("(no value)")
		return nil
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
