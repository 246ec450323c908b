package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/models"
)

// Format names an encoding for unpacked archive files.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// Ext returns the file extension used for f.
func (f Format) Ext() string {
	return "." + string(f)
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatYAML, FormatJSON, FormatCBOR:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (must be yaml, json or cbor)", s)
}

// cborMode encodes with sorted map keys so that the same records always
// produce the same bytes.
var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("output: CBOR encoder initialization failed: " + err.Error())
	}
}

// ArchiveFile encodes one unpacked archive file.
func ArchiveFile(file *models.ArchiveFile, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(file, "", "  ")
	case FormatCBOR:
		return cborMode.Marshal(file)
	}
	return nil, fmt.Errorf("unknown format %q", f)
}
