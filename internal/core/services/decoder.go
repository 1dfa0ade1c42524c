package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

// ReservedFields are metadata names of the index store. A decoded map
// member with one of these names is renamed before it reaches the sink.
var ReservedFields = []string{
	"uid", "_id", "_type", "_source", "_all", "_parent",
	"_fieldnames", "_routing", "_index", "_size", "_timestamp", "_ttl",
}

// Decoder converts typed values into plain documents.
type Decoder struct {
	reserved map[string]struct{}
}

// NewDecoder creates a decoder guarding the given reserved names.
// With no names, ReservedFields is used.
func NewDecoder(reserved ...string) *Decoder {
	if len(reserved) == 0 {
		reserved = ReservedFields
	}
	d := &Decoder{reserved: make(map[string]struct{}, len(reserved))}
	for _, name := range reserved {
		d.reserved[name] = struct{}{}
	}
	return d
}

// DecodeImage decodes a full item as a map, coercing numbers.
func (d *Decoder) DecodeImage(m domain.AttributeMap) (domain.Document, error) {
	v, err := d.Decode(domain.MapAttr(m), true)
	if err != nil {
		return nil, err
	}
	return domain.Document(v.(map[string]any)), nil
}

// Decode converts v into a plain value.
//
// Map members are always decoded with forceNumeric set. List and binary-set
// elements are decoded with it cleared, so numbers inside lists stay strings.
func (d *Decoder) Decode(v domain.AttributeValue, forceNumeric bool) (any, error) {
	switch tv := v.(type) {
	case domain.NullAttr:
		return nil, nil
	case domain.StringAttr:
		return string(tv), nil
	case domain.BoolAttr:
		return bool(tv), nil
	case domain.NumberAttr:
		if forceNumeric {
			return ParseNumber(string(tv))
		}
		return string(tv), nil
	case domain.BinaryAttr:
		return base64.StdEncoding.EncodeToString(tv), nil
	case domain.MapAttr:
		return d.decodeMap(tv)
	case domain.ListAttr:
		out := make([]any, 0, len(tv))
		for i, item := range tv {
			dv, err := d.Decode(item, false)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			out = append(out, dv)
		}
		return out, nil
	case domain.BinarySetAttr:
		out := make([]any, 0, len(tv))
		for _, item := range tv {
			dv, err := d.Decode(domain.BinaryAttr(item), false)
			if err != nil {
				return nil, err
			}
			out = append(out, dv)
		}
		return out, nil
	case domain.StringSetAttr:
		out := make([]any, 0, len(tv))
		for _, s := range tv {
			out = append(out, s)
		}
		return out, nil
	case domain.NumberSetAttr:
		out := make([]any, 0, len(tv))
		for _, s := range tv {
			if !forceNumeric {
				out = append(out, s)
				continue
			}
			n, err := ParseNumber(s)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("%w: value has no tag", domain.ErrDecode)
	default:
		return nil, fmt.Errorf("%w: unrecognised tag %T", domain.ErrDecode, v)
	}
}

func (d *Decoder) decodeMap(m domain.MapAttr) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for name, member := range m {
		field := d.EscapeField(name)
		if field != name {
			if _, clash := m[field]; clash {
				return nil, fmt.Errorf("%w: field %q escapes to existing field %q", domain.ErrDecode, name, field)
			}
		}
		dv, err := d.Decode(member, true)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[field] = dv
	}
	return out, nil
}

// EscapeField renames a reserved field by doubling its first underscore.
// Names without an underscore and unreserved names are returned unchanged.
func (d *Decoder) EscapeField(name string) string {
	if _, ok := d.reserved[name]; !ok {
		return name
	}
	return strings.Replace(name, "_", "__", 1)
}

// ParseNumber parses a decimal string as an int64, falling back to float64.
// Integers too large for an int64 are kept exact as a json.Number.
func ParseNumber(s string) (any, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return json.Number(s), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: number %q: %w", domain.ErrDecode, s, err)
	}
	return f, nil
}
