// Package codec implements the self describing binary encoding used for all
// opaque state blobs in the ledger: component state, collection keys and
// values, and asset payloads. Decoding validates the blob and reports every
// collection and vault referenced at the top level of the value tree.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
)

// ValueKind enumerates the kinds of values the encoding can carry.
type ValueKind byte

// Set of value kinds with their encoding tags.
const (
	KindUnit ValueKind = iota
	KindBool
	KindI64
	KindU64
	KindString
	KindBytes
	KindList
	KindMap
	KindAddress
	KindCollectionRef
	KindVaultRef
	KindDecimal
)

// ErrDecode is the class of all decode/validation failures.
var ErrDecode = errors.New("decode failed")

// ErrEncode is the class of all encoding failures.
var ErrEncode = errors.New("encode failed")

// maxDepth bounds how deeply lists and maps may nest. The decoder descends
// one stack frame per level, so a blob nesting deeper is rejected instead
// of decoded.
const maxDepth = 64

// Value is a node in a decoded value tree. Only the fields for the carried
// kind are meaningful.
type Value struct {
	Kind       ValueKind
	Bool       bool
	Int        int64
	Uint       uint64
	Str        string
	Bytes      []byte
	Elems      []Value
	Entries    []MapEntry
	Addr       address.Address
	Collection address.CollectionID
	Vault      address.VaultID
}

// MapEntry is one key/value pair of a map value.
type MapEntry struct {
	Key   Value
	Value Value
}

// Decoded is the result of validating a raw blob: the value tree plus the
// collection and vault ids it references. The reference sets are one level
// deep: they do not include ids reachable only through the content of a
// referenced collection.
type Decoded struct {
	Value       Value
	Collections []address.CollectionID
	Vaults      []address.VaultID
}

// Decode validates the specified blob and returns the value tree along with
// the referenced collection and vault ids. Decoding is deterministic and
// pure: on any failure no partial result is returned.
func Decode(blob []byte) (Decoded, error) {
	d := decoder{data: blob}

	v, err := d.value(0)
	if err != nil {
		return Decoded{}, err
	}
	if d.pos != len(d.data) {
		return Decoded{}, fmt.Errorf("%w: %d trailing bytes", ErrDecode, len(d.data)-d.pos)
	}

	var dec Decoded
	dec.Value = v
	collect(&dec, v)

	return dec, nil
}

// collect walks the decoded tree accumulating referenced ids in encounter
// order, deduplicating structurally equal ids.
func collect(dec *Decoded, v Value) {
	switch v.Kind {
	case KindCollectionRef:
		for _, id := range dec.Collections {
			if id == v.Collection {
				return
			}
		}
		dec.Collections = append(dec.Collections, v.Collection)

	case KindVaultRef:
		for _, id := range dec.Vaults {
			if id == v.Vault {
				return
			}
		}
		dec.Vaults = append(dec.Vaults, v.Vault)

	case KindList:
		for _, e := range v.Elems {
			collect(dec, e)
		}

	case KindMap:
		for _, e := range v.Entries {
			collect(dec, e.Key)
			collect(dec, e.Value)
		}
	}
}

// =============================================================================

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) value(depth int) (Value, error) {
	if depth >= maxDepth {
		return Value{}, fmt.Errorf("%w: nesting exceeds %d levels", ErrDecode, maxDepth)
	}

	tag, err := d.byte()
	if err != nil {
		return Value{}, err
	}

	switch ValueKind(tag) {
	case KindUnit:
		return Value{Kind: KindUnit}, nil

	case KindBool:
		b, err := d.byte()
		if err != nil {
			return Value{}, err
		}
		if b > 1 {
			return Value{}, fmt.Errorf("%w: bool byte 0x%02x", ErrDecode, b)
		}
		return Value{Kind: KindBool, Bool: b == 1}, nil

	case KindI64:
		u, err := d.u64()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindI64, Int: int64(u)}, nil

	case KindU64:
		u, err := d.u64()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindU64, Uint: u}, nil

	case KindString:
		s, err := d.str()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindString, Str: s}, nil

	case KindBytes:
		b, err := d.bytes()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBytes, Bytes: b}, nil

	case KindList:
		n, err := d.u16()
		if err != nil {
			return Value{}, err
		}

		// The count is attacker controlled; grow as elements prove out
		// rather than preallocating from it.
		var elems []Value
		for i := 0; i < int(n); i++ {
			e, err := d.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, e)
		}
		return Value{Kind: KindList, Elems: elems}, nil

	case KindMap:
		n, err := d.u16()
		if err != nil {
			return Value{}, err
		}

		var entries []MapEntry
		for i := 0; i < int(n); i++ {
			k, err := d.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			v, err := d.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, MapEntry{Key: k, Value: v})
		}
		return Value{Kind: KindMap, Entries: entries}, nil

	case KindAddress:
		s, err := d.str()
		if err != nil {
			return Value{}, err
		}
		addr, err := address.Parse(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s", ErrDecode, err)
		}
		return Value{Kind: KindAddress, Addr: addr}, nil

	case KindCollectionRef:
		comp, id, err := d.ref()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindCollectionRef, Collection: address.CollectionID{Component: comp, ID: id}}, nil

	case KindVaultRef:
		comp, id, err := d.ref()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindVaultRef, Vault: address.VaultID{Component: comp, ID: id}}, nil

	case KindDecimal:
		s, err := d.str()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindDecimal, Str: s}, nil
	}

	return Value{}, fmt.Errorf("%w: unknown tag 0x%02x", ErrDecode, tag)
}

func (d *decoder) ref() (address.Address, string, error) {
	s, err := d.str()
	if err != nil {
		return address.Address{}, "", err
	}
	comp, err := address.Parse(s)
	if err != nil {
		return address.Address{}, "", fmt.Errorf("%w: %s", ErrDecode, err)
	}
	if comp.Kind() != address.KindComponent {
		return address.Address{}, "", fmt.Errorf("%w: ref owner %s is not a component", ErrDecode, comp)
	}

	id, err := d.str()
	if err != nil {
		return address.Address{}, "", err
	}
	if id == "" {
		return address.Address{}, "", fmt.Errorf("%w: empty ref id", ErrDecode)
	}

	return comp, id, nil
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, fmt.Errorf("%w: truncated at offset %d", ErrDecode, d.pos)
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) u16() (uint16, error) {
	if d.pos+2 > len(d.data) {
		return 0, fmt.Errorf("%w: truncated at offset %d", ErrDecode, d.pos)
	}
	v := binary.BigEndian.Uint16(d.data[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *decoder) u64() (uint64, error) {
	if d.pos+8 > len(d.data) {
		return 0, fmt.Errorf("%w: truncated at offset %d", ErrDecode, d.pos)
	}
	v := binary.BigEndian.Uint64(d.data[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *decoder) str() (string, error) {
	b, err := d.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.u16()
	if err != nil {
		return nil, err
	}
	if d.pos+int(n) > len(d.data) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrDecode, d.pos)
	}
	b := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}
