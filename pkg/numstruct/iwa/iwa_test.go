package iwa

import (
	"bytes"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

func TestChunks(t *testing.T) {
	t.Parallel()

	Convey("Chunks", t, func() {
		Convey("round trip across several pieces", func() {
			data := bytes.Repeat([]byte("numbers cell storage "), 10000)
			blob := Compress(data)
			So(len(blob), ShouldBeLessThan, len(data))

			out, err := Decompress(blob)
			So(err, ShouldBeNil)
			So(bytes.Equal(out, data), ShouldBeTrue)
		})

		Convey("stored chunk falls back to raw bytes", func() {
			blob := []byte{0, 5, 0, 0, 'h', 'e', 'l', 'l', 'o'}
			out, err := Decompress(blob)
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, "hello")
		})

		Convey("bad headers", func() {
			_, err := Decompress([]byte{1, 0, 0, 0})
			So(errors.Is(err, ErrFraming), ShouldBeTrue)

			_, err = Decompress([]byte{0, 9, 0, 0, 1})
			So(errors.Is(err, ErrFraming), ShouldBeTrue)

			_, err = Decompress([]byte{0, 1})
			So(errors.Is(err, ErrFraming), ShouldBeTrue)
		})

		Convey("empty blob", func() {
			out, err := Decompress(nil)
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}

func TestFile(t *testing.T) {
	t.Parallel()

	cat := schema.Default()
	sheet := archive.New(schema.Sheet).
		WithString("name", "Sheet 1").
		WithRefs("drawable_infos", []archive.Identifier{30, 20, 30})

	Convey("File", t, func() {
		recs := []archive.Record{
			{ID: 10, Type: schema.SheetArchive, Fields: sheet},
			{ID: 11, Type: 987654, Opaque: []byte{0xde, 0xad, 0xbe, 0xef}},
		}
		blob := EncodeFile(recs)

		out, err := DecodeFile(cat, "Index/Sheet.iwa", blob)
		So(err, ShouldBeNil)
		So(out, ShouldHaveLength, 2)

		Convey("decoded records keep their values", func() {
			So(out[0].ID, ShouldEqual, archive.Identifier(10))
			So(out[0].Fields.String("name"), ShouldEqual, "Sheet 1")
			So(out[0].Equal(recs[0]), ShouldBeTrue)
		})

		Convey("object references are recomputed", func() {
			refs := out[0].Envelope.Info.Uints("object_references")
			So(refs, ShouldResemble, []uint64{20, 30})
		})

		Convey("unknown types pass through byte for byte", func() {
			So(out[1].IsOpaque(), ShouldBeTrue)
			So(out[1].Opaque, ShouldResemble, []byte{0xde, 0xad, 0xbe, 0xef})

			again := EncodeFile(out)
			So(bytes.Equal(again, blob), ShouldBeTrue)
		})

		Convey("extra payloads survive", func() {
			out[1].Envelope.Extra = append(out[1].Envelope.Extra, archive.Payload{
				Info: archive.New(schema.MessageInfo).WithUint("type", 5),
				Data: []byte("second"),
			})
			back, err := DecodeFile(cat, "x.iwa", EncodeFile(out))
			So(err, ShouldBeNil)
			So(back[1].Envelope.Extra, ShouldHaveLength, 1)
			So(string(back[1].Envelope.Extra[0].Data), ShouldEqual, "second")
		})
	})

	Convey("Corrupt payloads name their file", t, func() {
		info := archive.New(schema.MessageInfo).WithUint("type", uint64(schema.SheetArchive))
		seg := Segment{
			Info:     archive.New(schema.ArchiveInfo).WithUint("identifier", 5).WithMessages("message_infos", []*archive.Message{info}),
			Payloads: [][]byte{{0x0a, 0x7f}},
		}
		_, err := DecodeFile(cat, "Index/Bad.iwa", Compress(AppendSegment(nil, seg)))
		So(errors.Is(err, archive.ErrCorrupt), ShouldBeTrue)

		var cre *archive.CorruptRecordError
		So(errors.As(err, &cre), ShouldBeTrue)
		So(cre.Path, ShouldEqual, "Index/Bad.iwa")
		So(cre.ID, ShouldEqual, archive.Identifier(5))
	})
}
