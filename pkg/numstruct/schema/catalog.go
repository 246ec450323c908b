// Package schema is the catalog of record layouts used by Numbers
// documents: the subset of message types the object graph, the model
// builder and the formula translator navigate. Records of any other type
// are carried opaquely.
package schema

import (
	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
)

// Record type tags.
const (
	DocumentArchive          archive.TypeTag = 1
	SheetArchive             archive.TypeTag = 2
	CalculationEngine        archive.TypeTag = 4000
	FormulaOwnerDependencies archive.TypeTag = 4003
	CellRecordTile           archive.TypeTag = 4004
	RangePrecedentsTile      archive.TypeTag = 4005
	HeaderNameManager        archive.TypeTag = 4006
	TableInfoArchive         archive.TypeTag = 6000
	TableModelArchive        archive.TypeTag = 6001
	TileArchive              archive.TypeTag = 6002
	TableDataList            archive.TypeTag = 6005
	MergeRegionMap           archive.TypeTag = 6144
	PackageMetadata          archive.TypeTag = 11006
)

// Catalog is a static tag to layout registry.
type Catalog struct {
	byTag  map[archive.TypeTag]*archive.MessageType
	byType map[*archive.MessageType]archive.TypeTag
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byTag:  make(map[archive.TypeTag]*archive.MessageType),
		byType: make(map[*archive.MessageType]archive.TypeTag),
	}
}

// Register adds a layout under tag, replacing any previous one.
func (c *Catalog) Register(tag archive.TypeTag, t *archive.MessageType) {
	if old, ok := c.byTag[tag]; ok {
		delete(c.byType, old)
	}
	c.byTag[tag] = t
	c.byType[t] = tag
}

// TypeFor implements archive.Catalog.
func (c *Catalog) TypeFor(tag archive.TypeTag) (*archive.MessageType, bool) {
	t, ok := c.byTag[tag]
	return t, ok
}

// TagFor implements archive.Catalog.
func (c *Catalog) TagFor(t *archive.MessageType) (archive.TypeTag, bool) {
	tag, ok := c.byType[t]
	return tag, ok
}

// Tags returns every registered tag.
func (c *Catalog) Tags() []archive.TypeTag {
	out := make([]archive.TypeTag, 0, len(c.byTag))
	for tag := range c.byTag {
		out = append(out, tag)
	}
	return out
}

// Default returns a catalog with every layout in this package registered.
func Default() *Catalog {
	c := NewCatalog()
	c.Register(DocumentArchive, Document)
	c.Register(SheetArchive, Sheet)
	c.Register(CalculationEngine, CalcEngine)
	c.Register(FormulaOwnerDependencies, FormulaOwner)
	c.Register(CellRecordTile, CellRecordTileType)
	c.Register(RangePrecedentsTile, RangePrecedentsTileType)
	c.Register(HeaderNameManager, HeaderNames)
	c.Register(TableInfoArchive, TableInfo)
	c.Register(TableModelArchive, TableModel)
	c.Register(TileArchive, Tile)
	c.Register(TableDataList, DataList)
	c.Register(MergeRegionMap, MergeMap)
	c.Register(PackageMetadata, Metadata)
	return c
}
