package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

// IDSeparator joins key values in a derived document id.
const IDSeparator = "|"

// IdentityDeriver computes stable document ids from key attributes.
type IdentityDeriver struct {
	decoder  *Decoder
	idFields []string
	keyOrder []string
}

// NewIdentityDeriver creates a deriver.
//
// When idFields is non-empty, ids are built from exactly those attributes in
// that order and a missing attribute is an error. Otherwise every key
// attribute is used: names listed in keyOrder first, in that order, then any
// others in lexical order.
func NewIdentityDeriver(decoder *Decoder, idFields, keyOrder []string) *IdentityDeriver {
	return &IdentityDeriver{
		decoder:  decoder,
		idFields: idFields,
		keyOrder: keyOrder,
	}
}

// Derive returns the document id for keys.
func (d *IdentityDeriver) Derive(keys domain.AttributeMap) (string, error) {
	if len(keys) == 0 {
		return "", fmt.Errorf("%w: no key attributes", domain.ErrIdentity)
	}

	decoded, err := d.decoder.Decode(domain.MapAttr(keys), true)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrIdentity, err)
	}
	values := decoded.(map[string]any)

	names := d.idFields
	if len(names) == 0 {
		names = d.order(keys)
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		v, ok := values[d.decoder.EscapeField(name)]
		if !ok {
			return "", fmt.Errorf("%w: key attribute %q missing", domain.ErrIdentity, name)
		}
		parts = append(parts, formatKey(v))
	}

	id := strings.Join(parts, IDSeparator)
	if id == "" {
		return "", fmt.Errorf("%w: empty id", domain.ErrIdentity)
	}
	return id, nil
}

// order lists key names: configured order first, then the rest sorted.
func (d *IdentityDeriver) order(keys domain.AttributeMap) []string {
	names := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, name := range d.keyOrder {
		if _, ok := keys[name]; ok {
			names = append(names, name)
			seen[name] = struct{}{}
		}
	}
	var rest []string
	for name := range keys {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func formatKey(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case int64:
		return strconv.FormatInt(tv, 10)
	case json.Number:
		return tv.String()
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(tv)
	default:
		return fmt.Sprint(tv)
	}
}
