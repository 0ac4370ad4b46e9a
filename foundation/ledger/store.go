// Package ledger maintains the single in-memory substate store of the node
// and the handle that scopes all access to it. The store exposes point
// lookups only: every entity is fetched by its typed identifier.
package ledger

import (
	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
)

// Package represents the stored form of a published package.
type Package struct {
	Code []byte
}

// Component represents the stored form of an instantiated component.
type Component struct {
	Package   address.Address
	Blueprint string
	State     []byte
}

// Entry is one key/value pair of a collection. Both sides are opaque
// encoded blobs.
type Entry struct {
	Key   []byte
	Value []byte
}

// Collection represents the stored form of a lazy map: the entries in
// insertion order.
type Collection struct {
	Entries []Entry
}

// Vault represents the stored form of a resource holder. Assets carries the
// held asset keys when the resource is non-fungible.
type Vault struct {
	Resource address.Address
	Amount   uint64
	Assets   []string
}

// ResourceDef represents the stored metadata of a resource type. Name and
// Symbol may be empty.
type ResourceDef struct {
	Name        string
	Symbol      string
	NonFungible bool
	Supply      uint64
}

// Asset represents the stored payload of one non-fungible asset.
type Asset struct {
	Immutable []byte
	Mutable   []byte
}

// AssetKey addresses one asset within its resource definition.
type AssetKey struct {
	Resource address.Address
	Key      string
}

// =============================================================================

// Reader is the read-only point-lookup surface of the store. It is the only
// view a shared-access scope receives.
type Reader interface {
	Package(addr address.Address) (Package, bool)
	Component(addr address.Address) (Component, bool)
	Collection(id address.CollectionID) (Collection, bool)
	Vault(id address.VaultID) (Vault, bool)
	ResourceDef(addr address.Address) (ResourceDef, bool)
	Asset(key AssetKey) (Asset, bool)
}

// Store is the key addressed substate store. A Store carries no
// synchronization of its own: all access goes through a Handle.
type Store struct {
	packages     map[address.Address]Package
	components   map[address.Address]Component
	collections  map[address.CollectionID]Collection
	vaults       map[address.VaultID]Vault
	resourceDefs map[address.Address]ResourceDef
	assets       map[AssetKey]Asset
}

// NewStore constructs an empty substate store.
func NewStore() *Store {
	return &Store{
		packages:     make(map[address.Address]Package),
		components:   make(map[address.Address]Component),
		collections:  make(map[address.CollectionID]Collection),
		vaults:       make(map[address.VaultID]Vault),
		resourceDefs: make(map[address.Address]ResourceDef),
		assets:       make(map[AssetKey]Asset),
	}
}

// Package returns the package stored under the specified address.
func (s *Store) Package(addr address.Address) (Package, bool) {
	p, exists := s.packages[addr]
	return p, exists
}

// PutPackage stores a package under the specified address.
func (s *Store) PutPackage(addr address.Address, p Package) {
	s.packages[addr] = p
}

// Component returns the component stored under the specified address.
func (s *Store) Component(addr address.Address) (Component, bool) {
	c, exists := s.components[addr]
	return c, exists
}

// PutComponent stores a component under the specified address.
func (s *Store) PutComponent(addr address.Address, c Component) {
	s.components[addr] = c
}

// Collection returns the collection stored under the specified id.
func (s *Store) Collection(id address.CollectionID) (Collection, bool) {
	c, exists := s.collections[id]
	return c, exists
}

// PutCollectionEntry adds or replaces one entry of the specified collection,
// creating the collection when it does not exist yet.
func (s *Store) PutCollectionEntry(id address.CollectionID, entry Entry) {
	c := s.collections[id]

	for i, e := range c.Entries {
		if string(e.Key) == string(entry.Key) {
			c.Entries[i] = entry
			s.collections[id] = c
			return
		}
	}

	c.Entries = append(c.Entries, entry)
	s.collections[id] = c
}

// Vault returns the vault stored under the specified id.
func (s *Store) Vault(id address.VaultID) (Vault, bool) {
	v, exists := s.vaults[id]
	return v, exists
}

// PutVault stores a vault under the specified id.
func (s *Store) PutVault(id address.VaultID, v Vault) {
	s.vaults[id] = v
}

// ResourceDef returns the resource definition stored under the specified
// address.
func (s *Store) ResourceDef(addr address.Address) (ResourceDef, bool) {
	rd, exists := s.resourceDefs[addr]
	return rd, exists
}

// PutResourceDef stores a resource definition under the specified address.
func (s *Store) PutResourceDef(addr address.Address, rd ResourceDef) {
	s.resourceDefs[addr] = rd
}

// Asset returns the asset payload stored under the specified key.
func (s *Store) Asset(key AssetKey) (Asset, bool) {
	a, exists := s.assets[key]
	return a, exists
}

// PutAsset stores an asset payload under the specified key.
func (s *Store) PutAsset(key AssetKey, a Asset) {
	s.assets[key] = a
}
