package dynamodb

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

// FromAttributeValue converts an SDK attribute value into the domain's
// typed value. A member the SDK does not recognise is ErrDecode.
func FromAttributeValue(av types.AttributeValue) (domain.AttributeValue, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberNULL:
		return domain.NullAttr{}, nil
	case *types.AttributeValueMemberS:
		return domain.StringAttr(v.Value), nil
	case *types.AttributeValueMemberBOOL:
		return domain.BoolAttr(v.Value), nil
	case *types.AttributeValueMemberN:
		return domain.NumberAttr(v.Value), nil
	case *types.AttributeValueMemberB:
		return domain.BinaryAttr(v.Value), nil
	case *types.AttributeValueMemberSS:
		return domain.StringSetAttr(v.Value), nil
	case *types.AttributeValueMemberNS:
		return domain.NumberSetAttr(v.Value), nil
	case *types.AttributeValueMemberBS:
		return domain.BinarySetAttr(v.Value), nil
	case *types.AttributeValueMemberM:
		m, err := FromItem(v.Value)
		if err != nil {
			return nil, err
		}
		return domain.MapAttr(m), nil
	case *types.AttributeValueMemberL:
		l := make(domain.ListAttr, len(v.Value))
		for i, elem := range v.Value {
			dv, err := FromAttributeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			l[i] = dv
		}
		return l, nil
	case *types.UnknownUnionMember:
		return nil, fmt.Errorf("%w: unknown tag %q", domain.ErrDecode, v.Tag)
	case nil:
		return nil, fmt.Errorf("%w: value has no tag", domain.ErrDecode)
	default:
		return nil, fmt.Errorf("%w: unexpected attribute value %T", domain.ErrDecode, av)
	}
}

// FromItem converts an SDK item (or key) into a domain attribute map.
func FromItem(item map[string]types.AttributeValue) (domain.AttributeMap, error) {
	if item == nil {
		return nil, nil
	}
	out := make(domain.AttributeMap, len(item))
	for name, av := range item {
		dv, err := FromAttributeValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = dv
	}
	return out, nil
}

// ToAttributeValue converts a domain typed value back into the SDK form.
// Used for continuation tokens.
func ToAttributeValue(v domain.AttributeValue) (types.AttributeValue, error) {
	switch tv := v.(type) {
	case domain.NullAttr:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case domain.StringAttr:
		return &types.AttributeValueMemberS{Value: string(tv)}, nil
	case domain.BoolAttr:
		return &types.AttributeValueMemberBOOL{Value: bool(tv)}, nil
	case domain.NumberAttr:
		return &types.AttributeValueMemberN{Value: string(tv)}, nil
	case domain.BinaryAttr:
		return &types.AttributeValueMemberB{Value: []byte(tv)}, nil
	case domain.StringSetAttr:
		return &types.AttributeValueMemberSS{Value: []string(tv)}, nil
	case domain.NumberSetAttr:
		return &types.AttributeValueMemberNS{Value: []string(tv)}, nil
	case domain.BinarySetAttr:
		return &types.AttributeValueMemberBS{Value: [][]byte(tv)}, nil
	case domain.MapAttr:
		m, err := ToItem(domain.AttributeMap(tv))
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case domain.ListAttr:
		l := make([]types.AttributeValue, len(tv))
		for i, elem := range tv {
			av, err := ToAttributeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("%w: value has no tag", domain.ErrDecode)
	}
}

// ToItem converts a domain attribute map into an SDK item.
func ToItem(m domain.AttributeMap) (map[string]types.AttributeValue, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]types.AttributeValue, len(m))
	for name, v := range m {
		av, err := ToAttributeValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = av
	}
	return out, nil
}
