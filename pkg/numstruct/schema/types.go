package schema

import (
	a "github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
)

// Archive framing.
var (
	MessageInfo = a.NewMessageType("TSP.MessageInfo",
		a.Uint(1, "type"),
		a.Packed(a.Uint(2, "version")),
		a.Uint(3, "length"),
		a.Packed(a.Uint(5, "object_references")),
		a.Packed(a.Uint(6, "data_references")),
		a.Bytes(7, "diff_field_path"),
	)

	ArchiveInfo = a.NewMessageType("TSP.ArchiveInfo",
		a.Uint(1, "identifier"),
		a.Repeated(a.Msg(2, "message_infos", MessageInfo)),
		a.Bool(3, "should_merge"),
	)
)

// Package metadata.
var (
	ComponentExternalReference = a.NewMessageType("TSP.ComponentExternalReference",
		a.Uint(1, "component_identifier"),
		a.Uint(2, "object_identifier"),
		a.Bool(3, "is_weak"),
	)

	ComponentInfo = a.NewMessageType("TSP.ComponentInfo",
		a.Uint(1, "identifier"),
		a.String(2, "preferred_locator"),
		a.String(3, "locator"),
		a.Repeated(a.Msg(6, "external_references", ComponentExternalReference)),
	)

	Metadata = a.NewMessageType("TSP.PackageMetadata",
		a.Uint(1, "last_object_identifier"),
		a.Repeated(a.Msg(3, "components", ComponentInfo)),
	)
)

// Document and sheets.
var (
	Document = a.NewMessageType("TN.DocumentArchive",
		a.Repeated(a.Ref(1, "sheets")),
		a.Ref(3, "calculation_engine"),
	)

	Sheet = a.NewMessageType("TN.SheetArchive",
		a.String(1, "name"),
		a.Repeated(a.Ref(2, "drawable_infos")),
	)
)

// Tables.
var (
	Drawable = a.NewMessageType("TSD.DrawableArchive",
		a.Ref(2, "parent"),
	)

	TableInfo = a.NewMessageType("TST.TableInfoArchive",
		a.Msg(1, "super", Drawable),
		a.Ref(2, "tableModel"),
	)

	HauntedOwnerRef = a.NewMessageType("TST.HauntedOwnerArchive",
		a.UUIDOf(1, "owner_uid", a.RoleUUIDEdge),
	)

	TileRef = a.NewMessageType("TST.TileStorage.Tile",
		a.Uint(1, "tileid"),
		a.Ref(2, "tile"),
	)

	TileStorage = a.NewMessageType("TST.TileStorage",
		a.Repeated(a.Msg(1, "tiles", TileRef)),
		a.Uint(3, "tile_size"),
	)

	DataStore = a.NewMessageType("TST.DataStore",
		a.Msg(3, "tiles", TileStorage),
		a.Ref(4, "stringTable"),
		a.Ref(5, "styleTable"),
		a.Ref(6, "formula_table"),
		a.Ref(7, "formula_error_table"),
		a.Ref(11, "format_table"),
		a.Ref(12, "merge_region_map"),
		a.Ref(17, "rich_text_table"),
	)

	TableModel = a.NewMessageType("TST.TableModelArchive",
		a.String(1, "table_id"),
		a.Ref(3, "table_style"),
		a.Msg(4, "base_data_store", DataStore),
		a.Uint(6, "number_of_rows"),
		a.Uint(7, "number_of_columns"),
		a.String(8, "table_name"),
		a.Uint(10, "number_of_header_rows"),
		a.Uint(11, "number_of_header_columns"),
		a.Uint(12, "number_of_footer_rows"),
		a.Bool(13, "table_name_enabled"),
		a.Msg(60, "haunted_owner", HauntedOwnerRef),
		a.Repeated(a.UUIDOf(70, "column_uids", a.RoleNone)),
		a.Repeated(a.UUIDOf(71, "row_uids", a.RoleNone)),
	)

	TileRowInfo = a.NewMessageType("TST.TileRowInfo",
		a.Uint(1, "tile_row_index"),
		a.Uint(2, "cell_count"),
		a.Bytes(3, "cell_storage_buffer_pre_bnc"),
		a.Bytes(4, "cell_offsets_pre_bnc"),
		a.Bytes(6, "cell_storage_buffer"),
		a.Bytes(7, "cell_offsets"),
		a.Bool(8, "has_wide_offsets"),
	)

	Tile = a.NewMessageType("TST.Tile",
		a.Uint(1, "maxColumn"),
		a.Uint(2, "maxRow"),
		a.Uint(3, "numCells"),
		a.Uint(4, "numrows"),
		a.Repeated(a.Msg(5, "rowInfos", TileRowInfo)),
		a.Bool(6, "last_saved_in_BNC"),
		a.Bool(7, "should_use_wide_rows"),
	)

	CellID = a.NewMessageType("TST.CellID",
		a.Uint(1, "packedData"),
	)

	CellRange = a.NewMessageType("TST.CellRange",
		a.Msg(1, "origin", CellID),
		a.Msg(2, "size", CellID),
	)

	MergeMap = a.NewMessageType("TST.MergeRegionMapArchive",
		a.Repeated(a.Msg(1, "cell_range", CellRange)),
	)
)

// Formula abstract syntax.
var (
	ASTRow = a.NewMessageType("TSCE.ASTNodeArrayArchive.ASTRow",
		a.Int(1, "row"),
		a.Bool(2, "absolute"),
	)

	ASTColumn = a.NewMessageType("TSCE.ASTNodeArrayArchive.ASTColumn",
		a.Int(1, "column"),
		a.Bool(2, "absolute"),
	)

	ASTStickyBits = a.NewMessageType("TSCE.ASTNodeArrayArchive.ASTStickyBits",
		a.Bool(1, "begin_row_is_absolute"),
		a.Bool(2, "begin_column_is_absolute"),
		a.Bool(3, "end_row_is_absolute"),
		a.Bool(4, "end_column_is_absolute"),
	)

	ASTCrossTable = a.NewMessageType("TSCE.ASTNodeArrayArchive.ASTCrossTableReferenceExtraInfo",
		a.UUIDOf(1, "table_id", a.RoleUUIDEdge),
	)

	ASTTractRange = a.NewMessageType("TSCE.ASTNodeArrayArchive.ASTColonTract.ASTColonTractRelativeRangeRecord",
		a.Int(1, "range_begin"),
		a.Int(2, "range_end"),
	)

	ASTColonTract = a.NewMessageType("TSCE.ASTNodeArrayArchive.ASTColonTract",
		a.Repeated(a.Msg(1, "relative_row", ASTTractRange)),
		a.Repeated(a.Msg(2, "relative_column", ASTTractRange)),
		a.Repeated(a.Msg(3, "absolute_row", ASTTractRange)),
		a.Repeated(a.Msg(4, "absolute_column", ASTTractRange)),
		a.Bool(5, "preserve_rectangular"),
	)

	ASTUIDCoord = a.NewMessageType("TSCE.ASTNodeArrayArchive.ASTUidCoordinate",
		a.UUIDOf(1, "column_uid", a.RoleNone),
		a.UUIDOf(2, "row_uid", a.RoleNone),
		a.Bool(3, "column_absolute"),
		a.Bool(4, "row_absolute"),
	)

	ASTUIDReference = a.NewMessageType("TSCE.ASTNodeArrayArchive.ASTUidReference",
		a.UUIDOf(1, "table_id", a.RoleUUIDEdge),
		a.Msg(2, "begin", ASTUIDCoord),
		a.Msg(3, "end", ASTUIDCoord),
	)

	ASTNode = a.NewMessageType("TSCE.ASTNodeArrayArchive.ASTNodeArchive",
		a.Uint(1, "AST_node_type"),
		a.Uint(2, "AST_function_node_index"),
		a.Uint(3, "AST_function_node_numArgs"),
		a.Double(4, "AST_number_node_number"),
		a.Bool(5, "AST_boolean_node_boolean"),
		a.String(6, "AST_string_node_string"),
		a.Double(7, "AST_date_node_dateNum"),
		a.Msg(8, "AST_row", ASTRow),
		a.Msg(9, "AST_column", ASTColumn),
		a.Msg(10, "AST_sticky_bits", ASTStickyBits),
		a.Msg(11, "AST_cross_table_reference_extra_info", ASTCrossTable),
		a.Uint(12, "AST_list_node_numArgs"),
		a.Uint(13, "AST_array_node_numCol"),
		a.Uint(14, "AST_array_node_numRow"),
		a.Msg(15, "AST_colon_tract", ASTColonTract),
		a.Fixed64(16, "AST_number_node_decimal_low"),
		a.Fixed64(17, "AST_number_node_decimal_high"),
		a.Uint(18, "AST_duration_node_unitNum"),
		a.Msg(19, "AST_uid_reference", ASTUIDReference),
		a.String(20, "AST_identifier"),
		a.Uint(21, "AST_lambda_node_numArgs"),
		a.Double(22, "AST_duration_node_seconds"),
	)

	ASTNodeArray = a.NewMessageType("TSCE.ASTNodeArrayArchive",
		a.Repeated(a.Msg(1, "AST_node", ASTNode)),
	)

	Formula = a.NewMessageType("TSCE.FormulaArchive",
		a.Msg(1, "AST_node_array", ASTNodeArray),
		a.Uint(2, "host_column"),
		a.Uint(3, "host_row"),
	)
)

// Table data lists.
var (
	ListEntry = a.NewMessageType("TST.TableDataList.ListEntry",
		a.Uint(1, "key"),
		a.Uint(2, "refcount"),
		a.String(3, "string"),
		a.Ref(4, "reference"),
		a.Msg(5, "formula", Formula),
		a.Ref(9, "rich_text_payload"),
	)

	DataList = a.NewMessageType("TST.TableDataList",
		a.Uint(1, "listType"),
		a.Uint(2, "nextListID"),
		a.Repeated(a.Msg(3, "entries", ListEntry)),
	)
)

// Calculation engine.
var (
	CellCoordinate = a.NewMessageType("TSCE.CellCoordinateArchive",
		a.Uint(1, "column"),
		a.Uint(2, "row"),
	)

	RangeCoordinate = a.NewMessageType("TSCE.RangeCoordinateArchive",
		a.Uint(1, "top_left_column"),
		a.Uint(2, "top_left_row"),
		a.Uint(3, "bottom_right_column"),
		a.Uint(4, "bottom_right_row"),
	)

	OwnerIDMapEntry = a.NewMessageType("TSCE.OwnerIDMapArchive.OwnerIDMapArchiveEntry",
		a.Uint(1, "internal_owner_id"),
		a.UUIDOf(2, "owner_id", a.RoleUUIDEdge),
	)

	OwnerIDMap = a.NewMessageType("TSCE.OwnerIDMapArchive",
		a.Repeated(a.Msg(1, "map_entry", OwnerIDMapEntry)),
	)

	DependencyTracker = a.NewMessageType("TSCE.DependencyTrackerArchive",
		a.Repeated(a.Ref(1, "formula_owner_dependencies")),
		a.Uint(2, "number_of_formulas"),
		a.Msg(3, "owner_id_map", OwnerIDMap),
	)

	CalcEngine = a.NewMessageType("TSCE.CalculationEngineArchive",
		a.Msg(1, "dependency_tracker", DependencyTracker),
		a.Ref(2, "header_name_manager"),
	)

	CellRecord = a.NewMessageType("TSCE.CellRecordExpandedArchive",
		a.Uint(1, "column"),
		a.Uint(2, "row"),
		a.Uint(3, "dependency_count"),
	)

	CellRecordTileType = a.NewMessageType("TSCE.CellRecordTileArchive",
		a.Uint(1, "internal_owner_id"),
		a.Uint(2, "tile_column_begin"),
		a.Uint(3, "tile_row_begin"),
		a.Repeated(a.Msg(4, "cell_records", CellRecord)),
	)

	FromToRange = a.NewMessageType("TSCE.RangePrecedentsTileArchive.FromToRangeArchive",
		a.Msg(1, "refers_to_rect", RangeCoordinate),
		a.Msg(2, "from_coord", CellCoordinate),
	)

	RangePrecedentsTileType = a.NewMessageType("TSCE.RangePrecedentsTileArchive",
		a.Uint(1, "to_owner_id"),
		a.Repeated(a.Msg(2, "from_to_range", FromToRange)),
		a.Uint(3, "tile_column_begin"),
		a.Uint(4, "tile_row_begin"),
	)

	InternalRangeReference = a.NewMessageType("TSCE.InternalRangeReferenceArchive",
		a.Uint(1, "owner_id"),
		a.Msg(2, "range", RangeCoordinate),
	)

	RangeBackDependency = a.NewMessageType("TSCE.RangeBackDependencyArchive",
		a.Msg(1, "cell_coord", CellCoordinate),
		a.Msg(2, "internal_range_reference", InternalRangeReference),
	)

	RangeDependencies = a.NewMessageType("TSCE.RangeDependenciesArchive",
		a.Repeated(a.Msg(1, "back_dependency", RangeBackDependency)),
	)

	TiledCellDependencies = a.NewMessageType("TSCE.CellDependenciesTiledArchive",
		a.Repeated(a.Ref(1, "cell_record_tiles")),
	)

	TiledRangeDependencies = a.NewMessageType("TSCE.RangeDependenciesTiledArchive",
		a.Repeated(a.Ref(1, "range_precedents_tile")),
	)

	FormulaOwner = a.NewMessageType("TSCE.FormulaOwnerDependenciesArchive",
		a.UUIDOf(1, "formula_owner_uid", a.RoleOwnerUID),
		a.Uint(2, "internal_formula_owner_id"),
		a.Uint(3, "owner_kind"),
		a.Msg(5, "range_dependencies", RangeDependencies),
		a.Msg(9, "tiled_cell_dependencies", TiledCellDependencies),
		a.Msg(10, "tiled_range_dependencies", TiledRangeDependencies),
		a.UUIDOf(11, "base_owner_uid", a.RoleOwnerUID),
	)
)

// Header names.
var (
	NameUse = a.NewMessageType("TSCE.NameFragmentUseArchive",
		a.UUIDOf(1, "owner_uid", a.RoleUUIDEdge),
		a.Repeated(a.UUIDOf(2, "column_uids", a.RoleNone)),
		a.Repeated(a.UUIDOf(3, "row_uids", a.RoleNone)),
		a.Packed(a.Uint(4, "column_uid_indexes")),
		a.Packed(a.Uint(5, "row_uid_indexes")),
	)

	NameFragment = a.NewMessageType("TSCE.NameFragmentArchive",
		a.String(1, "name"),
		a.Repeated(a.Msg(2, "uses_of_name_fragment", NameUse)),
	)

	HeaderNames = a.NewMessageType("TSCE.HeaderNameManagerArchive",
		a.UUIDOf(1, "header_name_owner_uid", a.RoleOwnerUID),
		a.Repeated(a.UUIDOf(2, "sorted_uids", a.RoleNone)),
		a.Repeated(a.Msg(3, "name_fragments", NameFragment)),
	)
)
