// Package json converts JSON input into the protoform document tree using
// the goccy/go-json token stream, preserving object key order. Numbers and
// booleans are lowered to their scalar text; interpretation is deferred to
// the schema, exactly as with YAML input.
package json

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	j "github.com/goccy/go-json"

	protoform "github.com/protoform/protoform"
)

// Decode parses data into a document tree.
func Decode(data []byte) (protoform.Node, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		return nil, fmt.Errorf("json: trailing content after document")
	}
	return n, nil
}

// DecodeMapping is Decode constrained to a top-level object.
func DecodeMapping(data []byte) (*protoform.Mapping, error) {
	n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	m, ok := n.(*protoform.Mapping)
	if !ok {
		return nil, fmt.Errorf("json: expected top-level object, got %s", n.Kind())
	}
	return m, nil
}

func decodeValue(dec *j.Decoder) (protoform.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return fromToken(dec, tok)
}

func fromToken(dec *j.Decoder, tok j.Token) (protoform.Node, error) {
	switch t := tok.(type) {
	case j.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("json: unexpected delimiter %q", t.String())
	case string:
		return protoform.NewValue(t), nil
	case j.Number:
		return protoform.NewValue(t.String()), nil
	case bool:
		if t {
			return protoform.NewValue("true"), nil
		}
		return protoform.NewValue("false"), nil
	case nil:
		return protoform.NewValue(""), nil
	}
	return nil, fmt.Errorf("json: unexpected token %v", tok)
}

func decodeObject(dec *j.Decoder) (*protoform.Mapping, error) {
	m := protoform.NewMapping()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("json: object key is not a string: %v", kt)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}
	// consume '}'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return m, nil
}

func decodeArray(dec *j.Decoder) (*protoform.Sequence, error) {
	seq := protoform.NewSequence()
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		seq.Append(val)
	}
	// consume ']'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return seq, nil
}

// Encode renders a document tree as JSON. Every scalar is emitted as a JSON
// string; the document model does not retain the original scalar type.
func Encode(n protoform.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNode(buf *bytes.Buffer, n protoform.Node) error {
	switch t := n.(type) {
	case *protoform.Value:
		b, err := j.Marshal(t.Raw)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	case *protoform.Sequence:
		buf.WriteByte('[')
		for i, it := range t.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeNode(buf, it); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case *protoform.Mapping:
		buf.WriteByte('{')
		for i, e := range t.Entries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := j.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeNode(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}
	return fmt.Errorf("json: nil node")
}
