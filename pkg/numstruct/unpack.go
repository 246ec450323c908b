package numstruct

import (
	"encoding/hex"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/models"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// Unpack renders every record of the graph, grouped by archive file.
func (d *Document) Unpack() []models.ArchiveFile {
	cat := schema.Default()
	var out []models.ArchiveFile
	for _, path := range d.store.Paths() {
		recs := d.store.FileRecords(path)
		if len(recs) == 0 {
			continue
		}
		file := models.ArchiveFile{Path: path, Records: make([]models.RecordData, 0, len(recs))}
		for _, rec := range recs {
			rd := models.RecordData{
				Identifier: uint64(rec.ID),
				Type:       uint32(rec.Type),
				Digest:     rec.Digest().String(),
			}
			if t, ok := cat.TypeFor(rec.Type); ok {
				rd.TypeName = t.String()
			}
			if rec.IsOpaque() {
				rd.Opaque = hex.EncodeToString(rec.Opaque)
			} else {
				rd.Fields = rec.Fields.Tree()
			}
			file.Records = append(file.Records, rd)
		}
		out = append(out, file)
	}
	return out
}
