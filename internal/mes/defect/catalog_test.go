package defect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterByCategory(t *testing.T) {
	c := NewCatalog(DefaultCodes())

	assert.Len(t, c.Filter(CategoryAll, ""), len(DefaultCodes()))
	assert.Len(t, c.Filter("", ""), len(DefaultCodes()))
	assert.Len(t, c.Filter(CategoryAssembly, ""), 3)
	assert.Empty(t, c.Filter("包装类", ""))
}

func TestFilterByKeyword(t *testing.T) {
	c := NewCatalog(DefaultCodes())

	byName := c.Filter(CategoryAll, "尺寸")
	assert.Len(t, byName, 3)

	byCode := c.Filter(CategoryAll, "dq00")
	assert.Len(t, byCode, 3)

	combined := c.Filter(CategoryAppearance, "WG001")
	require.Len(t, combined, 1)
	assert.Equal(t, "划伤", combined[0].Name)

	assert.Empty(t, c.Filter(CategoryElectrical, "划伤"))
}

func TestCategoriesStartWithAll(t *testing.T) {
	c := NewCatalog(append(DefaultCodes(), Code{ID: "x", Code: "BZ001", Name: "包装破损", Category: "包装类"}))
	cats := c.Categories()

	require.Len(t, cats, 7)
	assert.Equal(t, CategoryCount{Key: CategoryAll, Count: 17}, cats[0])
	assert.Equal(t, CategoryCount{Key: CategoryAppearance, Count: 5}, cats[1])
	assert.Equal(t, "包装类", cats[6].Key)
}

func TestResolve(t *testing.T) {
	c := NewCatalog(DefaultCodes())

	got, err := c.Resolve([]Selection{{DefectID: "def-wg001", Count: 2}, {DefectID: "def-dq001"}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "WG001", got[0].Code)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, CategoryElectrical, got[1].Category)
	assert.Equal(t, 1, got[1].Count)

	_, err = c.Resolve([]Selection{{DefectID: "nope"}})
	assert.ErrorIs(t, err, ErrUnknownDefect)
}
