package codec

import (
	"context"
	"fmt"
	"strconv"

	protoform "github.com/protoform/protoform"
)

// Color is an 8-bit RGBA color as template documents declare it.
type Color struct {
	R, G, B, A uint8
}

// String renders the canonical document form: #rrggbb, or #rrggbbaa when the
// alpha channel is not opaque.
func (c Color) String() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ColorHex converts between #rrggbb / #rrggbbaa scalars and Color values.
func ColorHex() protoform.FieldCodec { return colorCodec{} }

type colorCodec struct{}

func (colorCodec) DecodeNode(ctx context.Context, n protoform.Node) (any, error) {
	v, ok := n.(*protoform.Value)
	if !ok {
		return nil, protoform.Issues{{Path: "/", Code: protoform.CodeInvalidType, Message: "expected scalar color"}}
	}
	c, err := parseColor(v.Raw)
	if err != nil {
		return nil, protoform.Issues{{Path: "/", Code: protoform.CodeInvalidFormat, Message: "invalid color " + strconv.Quote(v.Raw), Cause: err}}
	}
	return c, nil
}

func (colorCodec) EncodeNode(ctx context.Context, v any) (protoform.Node, error) {
	c, ok := v.(Color)
	if !ok {
		return nil, protoform.Issues{{Path: "/", Code: protoform.CodeInvalidType, Message: "expected codec.Color"}}
	}
	return protoform.NewValue(c.String()), nil
}

func (cc colorCodec) ValidateNode(ctx context.Context, n protoform.Node) error {
	_, err := cc.DecodeNode(ctx, n)
	return err
}

// CopyValue implements protoform.CodecCopier. Color is a plain value; the
// method exists so Copy routes through the codec instead of the generic
// structural copier.
func (colorCodec) CopyValue(src any) (any, error) {
	c, ok := src.(Color)
	if !ok {
		return nil, fmt.Errorf("codec: expected codec.Color, got %T", src)
	}
	return c, nil
}

func parseColor(s string) (Color, error) {
	if len(s) == 0 || s[0] != '#' {
		return Color{}, fmt.Errorf("color must start with '#'")
	}
	hex := s[1:]
	var c Color
	c.A = 0xff
	switch len(hex) {
	case 8:
		a, err := strconv.ParseUint(hex[6:8], 16, 8)
		if err != nil {
			return Color{}, err
		}
		c.A = uint8(a)
		fallthrough
	case 6:
		r, err := strconv.ParseUint(hex[0:2], 16, 8)
		if err != nil {
			return Color{}, err
		}
		g, err := strconv.ParseUint(hex[2:4], 16, 8)
		if err != nil {
			return Color{}, err
		}
		b, err := strconv.ParseUint(hex[4:6], 16, 8)
		if err != nil {
			return Color{}, err
		}
		c.R, c.G, c.B = uint8(r), uint8(g), uint8(b)
		return c, nil
	}
	return Color{}, fmt.Errorf("color must be #rrggbb or #rrggbbaa")
}
