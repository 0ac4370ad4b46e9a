package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
)

// Encode converts a value tree back into its binary form. Every string,
// byte run, list and map length must fit the 16 bit wire form; a tree
// carrying a longer one is rejected. Encode and Decode round trip:
// Decode(Encode(v)) yields v for any tree Encode accepts.
func Encode(v Value) ([]byte, error) {
	var e encoder
	e.value(v)
	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// Convenience constructors for building value trees.

// Unit returns the unit value.
func Unit() Value { return Value{Kind: KindUnit} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// I64 returns a signed integer value.
func I64(i int64) Value { return Value{Kind: KindI64, Int: i} }

// U64 returns an unsigned integer value.
func U64(u uint64) Value { return Value{Kind: KindU64, Uint: u} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bytes returns a raw bytes value.
func Bytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// List returns a list value over the specified elements.
func List(elems ...Value) Value { return Value{Kind: KindList, Elems: elems} }

// Map returns a map value over the specified entries.
func Map(entries ...MapEntry) Value { return Value{Kind: KindMap, Entries: entries} }

// Addr returns an address reference value.
func Addr(a address.Address) Value { return Value{Kind: KindAddress, Addr: a} }

// CollectionRef returns a collection reference value.
func CollectionRef(id address.CollectionID) Value {
	return Value{Kind: KindCollectionRef, Collection: id}
}

// VaultRef returns a vault reference value.
func VaultRef(id address.VaultID) Value { return Value{Kind: KindVaultRef, Vault: id} }

// Decimal returns a decimal value carried as its textual form.
func Decimal(s string) Value { return Value{Kind: KindDecimal, Str: s} }

// =============================================================================

type encoder struct {
	buf []byte
	err error
}

func (e *encoder) value(v Value) {
	e.buf = append(e.buf, byte(v.Kind))

	switch v.Kind {
	case KindBool:
		var b byte
		if v.Bool {
			b = 1
		}
		e.buf = append(e.buf, b)

	case KindI64:
		e.u64(uint64(v.Int))

	case KindU64:
		e.u64(v.Uint)

	case KindString, KindDecimal:
		e.str(v.Str)

	case KindBytes:
		e.bytes(v.Bytes)

	case KindList:
		e.u16(len(v.Elems))
		for _, el := range v.Elems {
			e.value(el)
		}

	case KindMap:
		e.u16(len(v.Entries))
		for _, entry := range v.Entries {
			e.value(entry.Key)
			e.value(entry.Value)
		}

	case KindAddress:
		e.str(v.Addr.String())

	case KindCollectionRef:
		e.str(v.Collection.Component.String())
		e.str(v.Collection.ID)

	case KindVaultRef:
		e.str(v.Vault.Component.String())
		e.str(v.Vault.ID)
	}
}

func (e *encoder) u16(n int) {
	if n > math.MaxUint16 {
		if e.err == nil {
			e.err = fmt.Errorf("%w: length %d exceeds the %d wire limit", ErrEncode, n, math.MaxUint16)
		}
		n = math.MaxUint16
	}
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(n))
}

func (e *encoder) u64(u uint64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, u)
}

func (e *encoder) str(s string) {
	e.u16(len(s))
	e.buf = append(e.buf, s...)
}

func (e *encoder) bytes(b []byte) {
	e.u16(len(b))
	e.buf = append(e.buf, b...)
}
