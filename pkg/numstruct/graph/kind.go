package graph

import "fmt"

// OwnerKind is the role of a formula-owner record. Values outside the
// named constants are unknown kinds and keep their raw number.
type OwnerKind uint32

const (
	OwnerTableModel        OwnerKind = 1
	OwnerConditionalStyle  OwnerKind = 3
	OwnerMerge             OwnerKind = 5
	OwnerGroupBy           OwnerKind = 9
	OwnerPencilAnnotation  OwnerKind = 16
	OwnerHeaderNameManager OwnerKind = 30
	OwnerHaunted           OwnerKind = 35
	OwnerPivot             OwnerKind = 36
)

// Known reports whether k is one of the named kinds.
func (k OwnerKind) Known() bool {
	switch k {
	case OwnerTableModel, OwnerConditionalStyle, OwnerMerge, OwnerGroupBy,
		OwnerPencilAnnotation, OwnerHeaderNameManager, OwnerHaunted, OwnerPivot:
		return true
	}
	return false
}

func (k OwnerKind) String() string {
	switch k {
	case OwnerTableModel:
		return "table-model"
	case OwnerConditionalStyle:
		return "conditional-style"
	case OwnerMerge:
		return "merge"
	case OwnerGroupBy:
		return "group-by"
	case OwnerPencilAnnotation:
		return "pencil-annotation"
	case OwnerHeaderNameManager:
		return "header-name-manager"
	case OwnerHaunted:
		return "haunted"
	case OwnerPivot:
		return "pivot"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(k))
	}
}
