// Package codec provides reusable field codecs for schema fields declared
// with codec=NAME. Register them on an engine registry at startup:
//
//	reg.RegisterCodec("rfc3339", codec.TimeRFC3339())
//	reg.RegisterCodec("color", codec.ColorHex())
package codec

import (
	"context"
	"strconv"
	"time"

	protoform "github.com/protoform/protoform"
)

// TimeRFC3339 converts between RFC3339 scalar strings and time.Time.
func TimeRFC3339() protoform.FieldCodec { return rfc3339Codec{} }

type rfc3339Codec struct{}

func (rfc3339Codec) DecodeNode(ctx context.Context, n protoform.Node) (any, error) {
	v, ok := n.(*protoform.Value)
	if !ok {
		return nil, protoform.Issues{{Path: "/", Code: protoform.CodeInvalidType, Message: "expected scalar RFC3339 time"}}
	}
	t, err := parseRFC3339(v.Raw)
	if err != nil {
		return nil, protoform.Issues{{Path: "/", Code: protoform.CodeInvalidFormat, Message: "invalid RFC3339 time " + strconv.Quote(v.Raw), Cause: err}}
	}
	return t, nil
}

func (rfc3339Codec) EncodeNode(ctx context.Context, v any) (protoform.Node, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, protoform.Issues{{Path: "/", Code: protoform.CodeInvalidType, Message: "expected time.Time"}}
	}
	return protoform.NewValue(formatRFC3339Canonical(t)), nil
}

func (c rfc3339Codec) ValidateNode(ctx context.Context, n protoform.Node) error {
	_, err := c.DecodeNode(ctx, n)
	return err
}

// parseRFC3339 accepts both second and nanosecond precision.
func parseRFC3339(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// formatRFC3339Canonical emits UTC with nanoseconds trimmed to the shortest
// representation.
func formatRFC3339Canonical(t time.Time) string {
	u := t.UTC()
	if u.Nanosecond() == 0 {
		return u.Format(time.RFC3339)
	}
	return u.Format(time.RFC3339Nano)
}
