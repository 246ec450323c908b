package models

// Diagnostic is one warning raised while reading a document.
type Diagnostic struct {
	// Kind classifies the warning, e.g. "dangling-reference".
	Kind string `json:"kind"`
	// Record is the identifier of the record concerned.
	Record uint64 `json:"record"`
	// Field is the field path within the record, if known.
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
