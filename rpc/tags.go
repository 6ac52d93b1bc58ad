package rpc

import "fmt"

// Kind identifies one value type in a call signature tag.
type Kind byte

const (
	KindNone    Kind = 'n'
	KindBool    Kind = 'b'
	KindInt32   Kind = 'i'
	KindInt64   Kind = 'I'
	KindFloat64 Kind = 'f'
	KindString  Kind = 's'
	KindBytes   Kind = 'B'
	KindList    Kind = 'l'
)

// Type is one parsed signature element. Elem is set only for KindList.
type Type struct {
	Kind Kind
	Elem *Type
}

func (t Type) String() string {
	if t.Kind == KindList {
		return "l" + t.Elem.String()
	}
	return string(byte(t.Kind))
}

// Signature is a parsed call tag: argument types, then the return type.
type Signature struct {
	Args []Type
	Ret  Type
}

// ParseSignature parses a call tag of the form "<args>:<ret>", e.g.
// "is:I" for (int32, string) -> int64. Lists nest by prefixing the
// element type with 'l'. The tag vocabulary is closed: an unrecognized
// byte fails the parse.
func ParseSignature(tag []byte) (Signature, error) {
	var sig Signature
	i := 0
	for i < len(tag) && tag[i] != ':' {
		t, n, err := parseType(tag[i:])
		if err != nil {
			return Signature{}, err
		}
		sig.Args = append(sig.Args, t)
		i += n
	}
	if i >= len(tag) {
		return Signature{}, fmt.Errorf("rpc tag %q: missing return type separator", tag)
	}
	i++ // skip ':'
	ret, n, err := parseType(tag[i:])
	if err != nil {
		return Signature{}, err
	}
	i += n
	if i != len(tag) {
		return Signature{}, fmt.Errorf("rpc tag %q: trailing bytes after return type", tag)
	}
	sig.Ret = ret
	return sig, nil
}

func parseType(tag []byte) (Type, int, error) {
	if len(tag) == 0 {
		return Type{}, 0, fmt.Errorf("rpc tag: unexpected end of tag")
	}
	switch Kind(tag[0]) {
	case KindNone, KindBool, KindInt32, KindInt64, KindFloat64, KindString, KindBytes:
		return Type{Kind: Kind(tag[0])}, 1, nil
	case KindList:
		elem, n, err := parseType(tag[1:])
		if err != nil {
			return Type{}, 0, err
		}
		if elem.Kind == KindNone {
			return Type{}, 0, fmt.Errorf("rpc tag: list of none")
		}
		return Type{Kind: KindList, Elem: &elem}, 1 + n, nil
	default:
		return Type{}, 0, fmt.Errorf("rpc tag: unrecognized type byte %q", tag[0])
	}
}
