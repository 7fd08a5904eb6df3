package listview

import (
	"testing"

	"github.com/pantryline/pantryline-backend/internal/items"
	"github.com/pantryline/pantryline-backend/pkg/enums"
)

func item(id, name string, category enums.Category) items.Item {
	return items.Item{ID: id, Name: name, Category: category}
}

func TestProjectSortsOtherLast(t *testing.T) {
	mirror := []items.Item{
		item("1", "chips", enums.CategorySnacks),
		item("2", "batteries", enums.CategoryOther),
		item("3", "apples", enums.CategoryFruits),
	}

	got := Project(mirror, Query{})
	want := []string{"3", "1", "2"} // fruits, snacks, other
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d = %s, want %s (order %v)", i, got[i].ID, id, got)
		}
	}
}

func TestProjectSortIsStableWithinCategory(t *testing.T) {
	mirror := []items.Item{
		item("1", "cheddar", enums.CategoryDairy),
		item("2", "milk", enums.CategoryDairy),
		item("3", "yoghurt", enums.CategoryDairy),
	}

	got := Project(mirror, Query{})
	for i, id := range []string{"1", "2", "3"} {
		if got[i].ID != id {
			t.Fatalf("stable sort violated at %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestProjectFiltersCaseInsensitiveSubstring(t *testing.T) {
	mirror := []items.Item{
		item("1", "Whole Milk", enums.CategoryDairy),
		item("2", "Oat Milk", enums.CategoryDairy),
		item("3", "Eggs", enums.CategoryDairy),
	}

	got := Project(mirror, Query{Search: "milk"})
	if len(got) != 2 {
		t.Fatalf("filtered %d items, want 2", len(got))
	}
	for _, it := range got {
		if it.ID == "3" {
			t.Fatal("eggs must not match the milk filter")
		}
	}
}

func TestProjectFiltersByStore(t *testing.T) {
	mirror := []items.Item{
		{ID: "1", Name: "milk", StoreID: "s1"},
		{ID: "2", Name: "bread", StoreID: "s2"},
	}

	got := Project(mirror, Query{StoreID: "s1"})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("got %v, want only item 1", got)
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	mirror := []items.Item{
		item("1", "batteries", enums.CategoryOther),
		item("2", "apples", enums.CategoryFruits),
	}

	_ = Project(mirror, Query{})
	if mirror[0].ID != "1" || mirror[1].ID != "2" {
		t.Fatal("projection must not reorder the mirror in place")
	}
}

func TestGroupByCategory(t *testing.T) {
	projected := Project([]items.Item{
		item("1", "chips", enums.CategorySnacks),
		item("2", "apples", enums.CategoryFruits),
		item("3", "pears", enums.CategoryFruits),
	}, Query{})

	groups := GroupByCategory(projected)
	if len(groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(groups))
	}
	if groups[0][0].Category != enums.CategoryFruits || len(groups[0]) != 2 {
		t.Fatalf("first group = %v", groups[0])
	}
	if groups[1][0].Category != enums.CategorySnacks {
		t.Fatalf("second group = %v", groups[1])
	}
}
