// Package formula translates the stored abstract syntax of formulas into
// formula text.
package formula

import "fmt"

// NodeType is the AST_node_type of a formula node.
type NodeType uint32

const (
	NodeAddition                NodeType = 1
	NodeSubtraction             NodeType = 2
	NodeMultiplication          NodeType = 3
	NodeDivision                NodeType = 4
	NodePower                   NodeType = 5
	NodeConcatenation           NodeType = 6
	NodeGreaterThan             NodeType = 7
	NodeGreaterThanOrEqual      NodeType = 8
	NodeLessThan                NodeType = 9
	NodeLessThanOrEqual         NodeType = 10
	NodeEqualTo                 NodeType = 11
	NodeNotEqualTo              NodeType = 12
	NodeNegation                NodeType = 13
	NodePlusSign                NodeType = 14
	NodePercent                 NodeType = 15
	NodeFunction                NodeType = 16
	NodeNumber                  NodeType = 17
	NodeBoolean                 NodeType = 18
	NodeString                  NodeType = 19
	NodeDate                    NodeType = 20
	NodeDuration                NodeType = 21
	NodeEmptyArgument           NodeType = 22
	NodeToken                   NodeType = 23
	NodeArray                   NodeType = 24
	NodeList                    NodeType = 25
	NodeThunk                   NodeType = 26
	NodeLocalCellReference      NodeType = 27
	NodeCrossTableCellReference NodeType = 28
	NodeColon                   NodeType = 29
	NodeEndThunk                NodeType = 30
	NodeReferenceError          NodeType = 31
	NodeUnknownFunction         NodeType = 32
	NodeAppendWhitespace        NodeType = 33
	NodePrependWhitespace       NodeType = 34
	NodeBeginEmbeddedNodeArray  NodeType = 35
	NodeEndEmbeddedNodeArray    NodeType = 36
	NodeColonWithUIDs           NodeType = 38
	NodeReferenceErrorWithUIDs  NodeType = 39
	NodeUIDReference            NodeType = 40
	NodeColonTract              NodeType = 41
	NodeCellReference           NodeType = 42
	NodeLet                     NodeType = 43
	NodeVariable                NodeType = 44
	NodeLambda                  NodeType = 45
)

var nodeNames = map[NodeType]string{
	NodeAddition:                "ADDITION_NODE",
	NodeSubtraction:             "SUBTRACTION_NODE",
	NodeMultiplication:          "MULTIPLICATION_NODE",
	NodeDivision:                "DIVISION_NODE",
	NodePower:                   "POWER_NODE",
	NodeConcatenation:           "CONCATENATION_NODE",
	NodeGreaterThan:             "GREATER_THAN_NODE",
	NodeGreaterThanOrEqual:      "GREATER_THAN_OR_EQUAL_TO_NODE",
	NodeLessThan:                "LESS_THAN_NODE",
	NodeLessThanOrEqual:         "LESS_THAN_OR_EQUAL_TO_NODE",
	NodeEqualTo:                 "EQUAL_TO_NODE",
	NodeNotEqualTo:              "NOT_EQUAL_TO_NODE",
	NodeNegation:                "NEGATION_NODE",
	NodePlusSign:                "PLUS_SIGN_NODE",
	NodePercent:                 "PERCENT_NODE",
	NodeFunction:                "FUNCTION_NODE",
	NodeNumber:                  "NUMBER_NODE",
	NodeBoolean:                 "BOOLEAN_NODE",
	NodeString:                  "STRING_NODE",
	NodeDate:                    "DATE_NODE",
	NodeDuration:                "DURATION_NODE",
	NodeEmptyArgument:           "EMPTY_ARGUMENT_NODE",
	NodeToken:                   "TOKEN_NODE",
	NodeArray:                   "ARRAY_NODE",
	NodeList:                    "LIST_NODE",
	NodeThunk:                   "THUNK_NODE",
	NodeLocalCellReference:      "LOCAL_CELL_REFERENCE_NODE",
	NodeCrossTableCellReference: "CROSS_TABLE_CELL_REFERENCE_NODE",
	NodeColon:                   "COLON_NODE",
	NodeEndThunk:                "END_THUNK_NODE",
	NodeReferenceError:          "REFERENCE_ERROR_NODE",
	NodeUnknownFunction:         "UNKNOWN_FUNCTION_NODE",
	NodeAppendWhitespace:        "APPEND_WHITESPACE_NODE",
	NodePrependWhitespace:       "PREPEND_WHITESPACE_NODE",
	NodeBeginEmbeddedNodeArray:  "BEGIN_EMBEDDED_NODE_ARRAY",
	NodeEndEmbeddedNodeArray:    "END_EMBEDDED_NODE_ARRAY",
	NodeColonWithUIDs:           "COLON_NODE_WITH_UIDS",
	NodeReferenceErrorWithUIDs:  "REFERENCE_ERROR_WITH_UIDS_NODE",
	NodeUIDReference:            "UID_REFERENCE_NODE",
	NodeColonTract:              "COLON_TRACT_NODE",
	NodeCellReference:           "CELL_REFERENCE_NODE",
	NodeLet:                     "LET_NODE",
	NodeVariable:                "VARIABLE_NODE",
	NodeLambda:                  "LAMBDA_NODE",
}

func (t NodeType) String() string {
	if name, ok := nodeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NODE_%d", uint32(t))
}
