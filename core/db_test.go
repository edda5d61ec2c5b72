package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanOrdering(t *testing.T) {
	allowed := map[string]string{"name": "s.name", "age": "s.age"}
	ordering := []DBOrdering{
		{Field: "age", Ascending: false},
		{Field: "password", Ascending: true},
		{Field: "name", Ascending: true},
	}

	got := CleanOrdering(ordering, allowed)
	assert.Equal(t, []DBOrdering{{Field: "s.age"}, {Field: "s.name", Ascending: true}}, got)
	assert.Equal(t, "s.age DESC", got[0].String())
	assert.Equal(t, "s.name ASC", got[1].String())
	assert.Empty(t, CleanOrdering(nil, allowed))
}

func TestPage(t *testing.T) {
	tests := []struct {
		name       string
		page       Page
		want       Page
		wantOffset int
	}{
		{name: "defaults", page: Page{}, want: Page{Number: 1, Size: 20}, wantOffset: 0},
		{name: "kept", page: Page{Number: 3, Size: 10}, want: Page{Number: 3, Size: 10}, wantOffset: 20},
		{name: "negative", page: Page{Number: -2, Size: -5}, want: Page{Number: 1, Size: 20}, wantOffset: 0},
		{name: "capped", page: Page{Number: 2, Size: 1000}, want: Page{Number: 2, Size: 100}, wantOffset: 100},
		{name: "huge number", page: Page{Number: math.MaxInt64, Size: 2}, want: Page{Number: math.MaxInt32/2 + 1, Size: 2}, wantOffset: math.MaxInt32 - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.page.Clean(20, 100)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOffset, got.Offset())
		})
	}

	assert.Equal(t, 0, Page{Number: 4}.Offset(), "no limit, no offset")
	assert.Equal(t, math.MaxInt32, Page{Number: math.MaxInt64, Size: 3}.Offset(), "uncleaned page is bounded")
	assert.Equal(t, Page{Number: 1, Size: 500}, Page{Size: 500}.Clean(20, 0), "no cap")
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Hero Zero", CleanString("  Hero Zero \n"))
	assert.Equal(t, "hero@test.cd", CleanString(" HERO@test.cd ", true))
	assert.Equal(t, "HERO", CleanString("HERO", false))
	assert.Equal(t, "", CleanString(" \t "))
}
