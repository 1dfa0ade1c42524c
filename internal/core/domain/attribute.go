package domain

// AttributeValue is one value in the source table's typed-value encoding.
// The set of implementations is closed: only the types in this file
// satisfy it, so a type switch over them is exhaustive.
type AttributeValue interface {
	isAttributeValue()
}

// AttributeMap maps attribute names to typed values.
// Items, key sets and images are all AttributeMaps.
type AttributeMap map[string]AttributeValue

// NullAttr is the NULL tag.
type NullAttr struct{}

// StringAttr is the S tag.
type StringAttr string

// BoolAttr is the BOOL tag.
type BoolAttr bool

// NumberAttr is the N tag. Numbers travel as decimal strings.
type NumberAttr string

// BinaryAttr is the B tag.
type BinaryAttr []byte

// MapAttr is the M tag.
type MapAttr map[string]AttributeValue

// ListAttr is the L tag.
type ListAttr []AttributeValue

// StringSetAttr is the SS tag.
type StringSetAttr []string

// NumberSetAttr is the NS tag.
type NumberSetAttr []string

// BinarySetAttr is the BS tag.
type BinarySetAttr [][]byte

func (NullAttr) isAttributeValue()      {}
func (StringAttr) isAttributeValue()    {}
func (BoolAttr) isAttributeValue()      {}
func (NumberAttr) isAttributeValue()    {}
func (BinaryAttr) isAttributeValue()    {}
func (MapAttr) isAttributeValue()       {}
func (ListAttr) isAttributeValue()      {}
func (StringSetAttr) isAttributeValue() {}
func (NumberSetAttr) isAttributeValue() {}
func (BinarySetAttr) isAttributeValue() {}

// Subset returns the attributes of m whose names appear in names.
// Missing names are skipped.
func (m AttributeMap) Subset(names []string) AttributeMap {
	out := make(AttributeMap, len(names))
	for _, name := range names {
		if v, ok := m[name]; ok {
			out[name] = v
		}
	}
	return out
}
