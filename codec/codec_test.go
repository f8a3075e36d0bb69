package codec_test

import (
	"context"
	"testing"
	"time"

	protoform "github.com/protoform/protoform"
	"github.com/protoform/protoform/codec"
)

func TestTimeRFC3339_Decode(t *testing.T) {
	ctx := context.Background()
	c := codec.TimeRFC3339()

	v, err := c.DecodeNode(ctx, protoform.NewValue("2024-03-01T10:20:30Z"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := v.(time.Time)
	if !ok || !got.Equal(time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", v)
	}

	if _, err := c.DecodeNode(ctx, protoform.NewValue("yesterday")); err == nil {
		t.Fatalf("expected an error for a non-RFC3339 scalar")
	}
	if _, err := c.DecodeNode(ctx, protoform.NewMapping()); err == nil {
		t.Fatalf("expected an error for a non-scalar node")
	}
}

func TestTimeRFC3339_EncodeCanonical(t *testing.T) {
	ctx := context.Background()
	c := codec.TimeRFC3339()

	loc := time.FixedZone("X", 2*3600)
	n, err := c.EncodeNode(ctx, time.Date(2024, 3, 1, 12, 20, 30, 0, loc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw := n.(*protoform.Value).Raw; raw != "2024-03-01T10:20:30Z" {
		t.Fatalf("expected UTC canonical form, got %q", raw)
	}

	n, _ = c.EncodeNode(ctx, time.Date(2024, 3, 1, 10, 20, 30, 500000000, time.UTC))
	if raw := n.(*protoform.Value).Raw; raw != "2024-03-01T10:20:30.5Z" {
		t.Fatalf("expected trimmed fraction, got %q", raw)
	}
}

func TestColorHex_Parse(t *testing.T) {
	ctx := context.Background()
	c := codec.ColorHex()

	cases := []struct {
		in   string
		want codec.Color
		bad  bool
	}{
		{in: "#ff8000", want: codec.Color{R: 0xff, G: 0x80, B: 0x00, A: 0xff}},
		{in: "#ff800040", want: codec.Color{R: 0xff, G: 0x80, B: 0x00, A: 0x40}},
		{in: "ff8000", bad: true},
		{in: "#ff80", bad: true},
		{in: "#zzzzzz", bad: true},
	}
	for _, tc := range cases {
		v, err := c.DecodeNode(ctx, protoform.NewValue(tc.in))
		if tc.bad {
			if err == nil {
				t.Fatalf("%q: expected an error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if v.(codec.Color) != tc.want {
			t.Fatalf("%q: got %+v", tc.in, v)
		}
	}
}

func TestColorHex_StringForm(t *testing.T) {
	if s := (codec.Color{R: 1, G: 2, B: 3, A: 0xff}).String(); s != "#010203" {
		t.Fatalf("opaque colors omit alpha, got %q", s)
	}
	if s := (codec.Color{R: 1, G: 2, B: 3, A: 0x80}).String(); s != "#01020380" {
		t.Fatalf("translucent colors keep alpha, got %q", s)
	}
}

type themed struct {
	Accent codec.Color `proto:"accent,codec=color"`
	Since  time.Time   `proto:"since,codec=rfc3339"`
}

func TestCodecs_ThroughRegistry(t *testing.T) {
	ctx := context.Background()
	reg := protoform.New()
	reg.RegisterCodec("color", codec.ColorHex())
	reg.RegisterCodec("rfc3339", codec.TimeRFC3339())

	doc := protoform.NewMapping().
		Set("accent", protoform.NewValue("#102030")).
		Set("since", protoform.NewValue("2024-03-01T10:20:30Z"))

	fields, err := protoform.Deserialize[themed](ctx, reg, doc, protoform.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj := new(themed)
	if err := reg.Populate(ctx, obj, fields, protoform.Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Accent != (codec.Color{R: 0x10, G: 0x20, B: 0x30, A: 0xff}) {
		t.Fatalf("unexpected accent: %+v", obj.Accent)
	}
	if obj.Since.IsZero() {
		t.Fatalf("since was not populated")
	}

	out, err := reg.Serialize(ctx, obj, protoform.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !protoform.NodeEqual(doc, out) {
		t.Fatalf("round trip mismatch: %v vs %v", doc.Keys(), out.Keys())
	}
}
