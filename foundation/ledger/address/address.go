// Package address defines the typed identifiers used to key entities in the
// ledger store: addresses for packages, components and resource definitions,
// plus the collection and vault ids scoped to an owning component.
package address

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Kind distinguishes the three disjoint address variants.
type Kind byte

// Set of address kinds an address can carry.
const (
	KindPackage Kind = iota + 1
	KindComponent
	KindResourceDef
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindComponent:
		return "component"
	case KindResourceDef:
		return "resource"
	}
	return "unknown"
}

// ErrInvalidAddress is returned when text can't be parsed as any address.
var ErrInvalidAddress = errors.New("invalid address")

// Address is a typed, string serializable identifier for a package,
// component or resource definition. The zero value is not a valid address.
type Address struct {
	kind Kind
	id   string
}

// New constructs an address of the specified kind over an opaque id.
func New(kind Kind, id string) (Address, error) {
	if kind < KindPackage || kind > KindResourceDef {
		return Address{}, fmt.Errorf("%w: unknown kind", ErrInvalidAddress)
	}
	if !validID(id) {
		return Address{}, fmt.Errorf("%w: bad id %q", ErrInvalidAddress, id)
	}

	return Address{kind: kind, id: id}, nil
}

// Derive constructs an address of the specified kind whose id is a hash over
// the provided seed material. Derivation is deterministic.
func Derive(kind Kind, seed ...[]byte) Address {
	h := sha256.New()
	h.Write([]byte{byte(kind)})
	for _, s := range seed {
		h.Write(s)
	}

	sum := h.Sum(nil)
	return Address{kind: kind, id: hex.EncodeToString(sum[:13])}
}

// Parse converts the textual form kind_id back into an address. Parsing is
// total: any input either produces a valid address or ErrInvalidAddress.
func Parse(s string) (Address, error) {
	prefix, id, found := strings.Cut(s, "_")
	if !found {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	var kind Kind
	switch prefix {
	case "package":
		kind = KindPackage
	case "component":
		kind = KindComponent
	case "resource":
		kind = KindResourceDef
	default:
		return Address{}, fmt.Errorf("%w: unknown prefix %q", ErrInvalidAddress, prefix)
	}

	return New(kind, id)
}

// Kind returns the variant this address carries.
func (a Address) Kind() Kind {
	return a.kind
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String implements the fmt.Stringer interface.
func (a Address) String() string {
	return a.kind.String() + "_" + a.id
}

// MarshalText implements the encoding.TextMarshaler interface.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (a *Address) UnmarshalText(data []byte) error {
	addr, err := Parse(string(data))
	if err != nil {
		return err
	}

	*a = addr
	return nil
}

// validID accepts a non empty run of lowercase hex-ish characters and
// digits. Ids are opaque: the store is the authority on existence.
func validID(id string) bool {
	if len(id) == 0 || len(id) > 64 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// =============================================================================

// CollectionID identifies a lazy map scoped to its owning component.
// Equality and hashing are structural.
type CollectionID struct {
	Component Address
	ID        string
}

// NewCollectionID derives a collection id for the owning component from the
// specified seed material.
func NewCollectionID(component Address, seed ...[]byte) CollectionID {
	return CollectionID{Component: component, ID: deriveID("mid", component, seed)}
}

// ParseCollectionID converts the textual form component_x:mid_y back into a
// collection id.
func ParseCollectionID(s string) (CollectionID, error) {
	comp, id, err := parseScoped(s, "mid_")
	if err != nil {
		return CollectionID{}, err
	}
	return CollectionID{Component: comp, ID: id}, nil
}

// String implements the fmt.Stringer interface.
func (c CollectionID) String() string {
	return c.Component.String() + ":mid_" + c.ID
}

// VaultID identifies a vault scoped to its owning component. Equality and
// hashing are structural.
type VaultID struct {
	Component Address
	ID        string
}

// NewVaultID derives a vault id for the owning component from the specified
// seed material.
func NewVaultID(component Address, seed ...[]byte) VaultID {
	return VaultID{Component: component, ID: deriveID("vid", component, seed)}
}

// ParseVaultID converts the textual form component_x:vid_y back into a
// vault id.
func ParseVaultID(s string) (VaultID, error) {
	comp, id, err := parseScoped(s, "vid_")
	if err != nil {
		return VaultID{}, err
	}
	return VaultID{Component: comp, ID: id}, nil
}

// String implements the fmt.Stringer interface.
func (v VaultID) String() string {
	return v.Component.String() + ":vid_" + v.ID
}

func parseScoped(s string, prefix string) (Address, string, error) {
	owner, rest, found := strings.Cut(s, ":")
	if !found {
		return Address{}, "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	comp, err := Parse(owner)
	if err != nil {
		return Address{}, "", err
	}
	if comp.Kind() != KindComponent {
		return Address{}, "", fmt.Errorf("%w: %q is not scoped to a component", ErrInvalidAddress, s)
	}

	id, ok := strings.CutPrefix(rest, prefix)
	if !ok || !validID(id) {
		return Address{}, "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	return comp, id, nil
}

func deriveID(space string, component Address, seed [][]byte) string {
	h := sha256.New()
	h.Write([]byte(space))
	h.Write([]byte(component.String()))
	for _, s := range seed {
		h.Write(s)
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:13])
}
