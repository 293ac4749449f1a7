package collection

import (
	"sort"

	"github.com/REPPL/itemdeck.app-sub011/pkg/entity"
	"github.com/REPPL/itemdeck.app-sub011/pkg/expr"
	"github.com/REPPL/itemdeck.app-sub011/pkg/schema"
)

// Default display expressions used when the collection declares no card
// mapping. Most catalogues carry a title field; the raw id is the
// fallback of last resort.
const (
	defaultTitleExpr = `title ?? name ?? id`
	defaultImageExpr = `images[type=cover][0] ?? images[0] ?? image`
)

// Card is the display-ready projection of one primary entity. It is
// computed at read time from the display configuration, so changing
// display expressions never requires a reload.
type Card struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Group    string  `json:"group,omitempty"`
	SortKey  float64 `json:"-"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Degraded bool    `json:"degraded,omitempty"`
}

// BuildCards projects every primary entity through the display
// configuration, grouped and sorted deterministically: groups in
// lexical order, cards within a group per sortWithinGroup (document
// order when unset).
func BuildCards(col *Collection) []Card {
	display := col.Display()

	titleExpr, subtitleExpr, imageExpr := defaultTitleExpr, "", defaultImageExpr
	groupExpr, sortExpr, descending := "", "", false
	if display != nil {
		if display.Card != nil && display.Card.Front != nil {
			if e, ok := display.Card.Front["title"]; ok {
				titleExpr = e
			}
			if e, ok := display.Card.Front["subtitle"]; ok {
				subtitleExpr = e
			}
			if e, ok := display.Card.Front["image"]; ok {
				imageExpr = e
			}
		}
		groupExpr = display.GroupBy
		if display.SortWithinGroup != nil {
			sortExpr = display.SortWithinGroup.Field
			descending = display.SortWithinGroup.Direction == "desc"
		}
	}

	entities := col.PrimaryEntities()
	cards := make([]Card, 0, len(entities))
	for _, e := range entities {
		card := Card{
			ID:    e.ID,
			Title: expr.ResolveString(e, titleExpr, e.ID),
		}
		if subtitleExpr != "" {
			card.Subtitle = expr.ResolveString(e, subtitleExpr, "")
		}
		if groupExpr != "" {
			card.Group = expr.ResolveString(e, groupExpr, "")
		}
		if sortExpr != "" {
			card.SortKey = expr.ResolveNumber(e, sortExpr, 0)
		}
		if images, err := expr.SelectFromEntity(e, imageExpr); err == nil && len(images) > 0 {
			card.ImageURL = images[0].URL
		}
		card.Degraded = hasUnresolvedField(e)
		cards = append(cards, card)
	}

	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Group != cards[j].Group {
			return cards[i].Group < cards[j].Group
		}
		if sortExpr == "" || cards[i].SortKey == cards[j].SortKey {
			return false // keep document order
		}
		if descending {
			return cards[i].SortKey > cards[j].SortKey
		}
		return cards[i].SortKey < cards[j].SortKey
	})
	return cards
}

// RenderFace evaluates one card face's slot expressions against an
// entity. Slots whose expressions miss are omitted.
func RenderFace(e *entity.ResolvedEntity, face map[string]string) map[string]string {
	rendered := make(map[string]string, len(face))
	for slot, expression := range face {
		if v := expr.ResolveString(e, expression, ""); v != "" {
			rendered[slot] = v
		}
	}
	return rendered
}

// Faces renders the front and back of one entity's card per the display
// configuration.
func Faces(e *entity.ResolvedEntity, display *schema.DisplayConfig) (front, back map[string]string) {
	if display == nil || display.Card == nil {
		return map[string]string{}, map[string]string{}
	}
	return RenderFace(e, display.Card.Front), RenderFace(e, display.Card.Back)
}

func hasUnresolvedField(e *entity.ResolvedEntity) bool {
	for _, v := range e.Fields {
		if v.HasUnresolved() {
			return true
		}
	}
	return false
}
