// Package cleansetup holds the two reference screens of the state/effect
// pattern. NoEffectsViewModel keeps snackbar text and navigation in state;
// EffectsViewModel sends them as one-shot effects.
package cleansetup

import (
	"context"
	"fmt"
)

// ItemCount is how many items the default loader produces.
const ItemCount = 100

type Item struct {
	Name        string
	IsFavourite bool
}

// Loader produces the screen items.
type Loader func(ctx context.Context) ([]Item, error)

// DefaultItems loads "Item 0" to "Item 99", none of them favourite.
func DefaultItems(context.Context) ([]Item, error) {
	items := make([]Item, 0, ItemCount)
	for i := 0; i < ItemCount; i++ {
		items = append(items, Item{Name: fmt.Sprintf("Item %d", i)})
	}
	return items, nil
}

func toggled(items []Item, name string) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		if it.Name == name {
			it.IsFavourite = !it.IsFavourite
		}
		out[i] = it
	}
	return out
}

func favouriteMessage(clicked Item) string {
	verb := "added to"
	if clicked.IsFavourite {
		verb = "removed from"
	}
	return fmt.Sprintf("Item %s is %s favourites", clicked.Name, verb)
}
