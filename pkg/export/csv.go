// Package export renders a resolved collection into flat report
// formats. Like every read-time consumer it works through the pure
// expression evaluators, so an export never mutates engine output.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/REPPL/itemdeck.app-sub011/pkg/collection"
)

var csvHeader = []string{"id", "title", "subtitle", "group", "image_url", "degraded"}

// WriteCSV writes every card of the collection's primary type as CSV,
// in the same grouped/sorted order the card API serves.
func WriteCSV(w io.Writer, col *collection.Collection) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, card := range collection.BuildCards(col) {
		row := []string{
			card.ID,
			card.Title,
			card.Subtitle,
			card.Group,
			card.ImageURL,
			strconv.FormatBool(card.Degraded),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
