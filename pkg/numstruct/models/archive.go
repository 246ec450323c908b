package models

// ArchiveFile is the decoded content of one archive file of a package.
type ArchiveFile struct {
	// Path is the entry name within the package, e.g. "Index/Document.iwa".
	Path    string       `json:"path" yaml:"path" cbor:"path"`
	Records []RecordData `json:"records" yaml:"records" cbor:"records"`
}

// RecordData is one record rendered as a field tree.
type RecordData struct {
	Identifier uint64 `json:"identifier" yaml:"identifier" cbor:"identifier"`
	Type       uint32 `json:"type" yaml:"type" cbor:"type"`
	// TypeName is empty for types the catalog does not describe.
	TypeName string `json:"type_name,omitempty" yaml:"type_name,omitempty" cbor:"type_name,omitempty"`
	Digest   string `json:"digest" yaml:"digest" cbor:"digest"`
	// Fields holds the decoded payload keyed by field name. Unknown fields
	// appear under "#<number>" as hex.
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty" cbor:"fields,omitempty"`
	// Opaque is the hex payload of records carried undecoded.
	Opaque string `json:"opaque,omitempty" yaml:"opaque,omitempty" cbor:"opaque,omitempty"`
}
