// Package inspect reconstructs the materialized state of a deployed entity
// from a store that exposes only point lookups. For a component this is a
// breadth-first walk over every reachable collection plus the resolution of
// every discovered vault; each distinct collection is decoded exactly once
// even when the reference graph is cyclic.
package inspect

import (
	"context"
	"errors"
	"strconv"

	"github.com/dRAT3/rad-rpc/foundation/ledger"
	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
	"github.com/dRAT3/rad-rpc/foundation/ledger/codec"
	"github.com/dRAT3/rad-rpc/foundation/web"
	"go.uber.org/zap"
)

// Set of error variants returned by the inspection api.
var (
	ErrNotFound    = errors.New("not found")
	ErrStateDecode = errors.New("component state did not validate")
)

// PackageInfo is the response model for a package lookup.
type PackageInfo struct {
	Bytes int
}

// Entry is one decoded key/value pair of a dumped collection.
type Entry struct {
	Key   string
	Value string
}

// CollectionDump carries the decoded entries of one reachable collection.
type CollectionDump struct {
	ID      string
	Entries []Entry
}

// AssetDump carries the decoded payloads of one non-fungible asset.
type AssetDump struct {
	Key       string
	Immutable string
	Mutable   string
}

// ResourceDump carries the resolved holdings of one discovered vault.
// Name and Symbol are empty when the resource definition doesn't carry
// them; Assets is populated for non-fungible holdings only.
type ResourceDump struct {
	Amount   string
	Resource string
	Name     string
	Symbol   string
	Assets   []AssetDump
}

// Snapshot is the accumulated output of a component inspection.
// InternalErr reports that a decode failed somewhere during the walk and
// the result is best effort.
type Snapshot struct {
	Package     string
	Blueprint   string
	State       string
	Collections []CollectionDump
	Resources   []ResourceDump
	InternalErr bool
}

// Core manages the inspection api.
type Core struct {
	log    *zap.SugaredLogger
	handle *ledger.Handle
}

// NewCore constructs a core for the inspection api.
func NewCore(log *zap.SugaredLogger, handle *ledger.Handle) *Core {
	return &Core{
		log:    log,
		handle: handle,
	}
}

// Package looks up a package and reports its code size. An absent package
// and a present package with zero length code both report not found.
func (c *Core) Package(ctx context.Context, addr address.Address) (PackageInfo, error) {
	var info PackageInfo
	var err error

	c.handle.WithRead(func(store ledger.Reader) {
		pkg, exists := store.Package(addr)
		if !exists || len(pkg.Code) == 0 {
			err = ErrNotFound
			return
		}
		info.Bytes = len(pkg.Code)
	})

	if err != nil {
		return PackageInfo{}, err
	}

	c.log.Infow("show package", "traceid", web.GetTraceID(ctx), "address", addr, "bytes", info.Bytes)
	return info, nil
}

// Component reconstructs the full reachable state of a component. When the
// top level state blob fails to validate the walk is skipped and the
// already discovered metadata is returned alongside ErrStateDecode; decode
// failures deeper in the walk only set the InternalErr flag.
func (c *Core) Component(ctx context.Context, addr address.Address) (Snapshot, error) {
	var snap Snapshot
	var err error

	c.handle.WithRead(func(store ledger.Reader) {
		cmp, exists := store.Component(addr)
		if !exists {
			err = ErrNotFound
			return
		}

		snap.Package = cmp.Package.String()
		snap.Blueprint = cmp.Blueprint
		snap.Collections = []CollectionDump{}
		snap.Resources = []ResourceDump{}

		dec, decErr := codec.Decode(cmp.State)
		if decErr != nil {
			err = ErrStateDecode
			return
		}
		snap.State = codec.Format(dec.Value)

		w := walk{store: store, visited: make(map[address.CollectionID]bool), vaultSeen: make(map[address.VaultID]bool)}
		w.queue = append(w.queue, dec.Collections...)
		for _, vid := range dec.Vaults {
			w.foundVault(vid)
		}

		w.run()

		snap.Collections = w.collections
		snap.Resources = w.resolveVaults()
		snap.InternalErr = w.internalErr
	})

	if err != nil {
		return snap, err
	}

	c.log.Infow("show component", "traceid", web.GetTraceID(ctx), "address", addr, "collections", len(snap.Collections), "resources", len(snap.Resources), "internalerr", snap.InternalErr)
	return snap, nil
}

// =============================================================================

// walk holds the traversal state of one inspection. The visited check
// happens at dequeue time so duplicate enqueues are tolerated.
type walk struct {
	store       ledger.Reader
	queue       []address.CollectionID
	visited     map[address.CollectionID]bool
	vaults      []address.VaultID
	vaultSeen   map[address.VaultID]bool
	collections []CollectionDump
	internalErr bool
}

func (w *walk) run() {
	for len(w.queue) > 0 {
		id := w.queue[0]
		w.queue = w.queue[1:]

		if w.visited[id] {
			continue
		}
		w.visited[id] = true

		col, exists := w.store.Collection(id)
		if !exists {
			w.internalErr = true
			continue
		}

		dump := CollectionDump{ID: id.String(), Entries: []Entry{}}

		for _, entry := range col.Entries {
			key, keyErr := codec.Decode(entry.Key)
			if keyErr != nil {
				w.internalErr = true
			} else {
				w.follow(key)
			}

			value, valueErr := codec.Decode(entry.Value)
			if valueErr != nil {
				w.internalErr = true
			} else {
				w.follow(value)
			}

			if keyErr != nil || valueErr != nil {
				continue
			}

			dump.Entries = append(dump.Entries, Entry{
				Key:   codec.Format(key.Value),
				Value: codec.Format(value.Value),
			})
		}

		w.collections = append(w.collections, dump)
	}
}

// follow enqueues every collection referenced by a successfully decoded
// blob and records every referenced vault. Enqueueing doesn't consult the
// visited set; dedup happens on dequeue.
func (w *walk) follow(dec codec.Decoded) {
	w.queue = append(w.queue, dec.Collections...)
	for _, vid := range dec.Vaults {
		w.foundVault(vid)
	}
}

func (w *walk) foundVault(vid address.VaultID) {
	if w.vaultSeen[vid] {
		return
	}
	w.vaultSeen[vid] = true
	w.vaults = append(w.vaults, vid)
}

// resolveVaults fetches every discovered vault and the display metadata of
// its resource. Non-fungible holdings additionally resolve each held asset
// key; a failing asset payload is a per-asset internal error and doesn't
// abort the remaining assets.
func (w *walk) resolveVaults() []ResourceDump {
	resources := []ResourceDump{}

	for _, vid := range w.vaults {
		vault, exists := w.store.Vault(vid)
		if !exists {
			w.internalErr = true
			continue
		}

		dump := ResourceDump{
			Amount:   strconv.FormatUint(vault.Amount, 10),
			Resource: vault.Resource.String(),
		}

		rd, exists := w.store.ResourceDef(vault.Resource)
		if !exists {
			w.internalErr = true
			resources = append(resources, dump)
			continue
		}
		dump.Name = rd.Name
		dump.Symbol = rd.Symbol

		if rd.NonFungible {
			dump.Assets = []AssetDump{}
			for _, key := range vault.Assets {
				dump.Assets = append(dump.Assets, w.resolveAsset(vault.Resource, key))
			}
		}

		resources = append(resources, dump)
	}

	return resources
}

func (w *walk) resolveAsset(resource address.Address, key string) AssetDump {
	dump := AssetDump{Key: key}

	asset, exists := w.store.Asset(ledger.AssetKey{Resource: resource, Key: key})
	if !exists {
		w.internalErr = true
		return dump
	}

	if immutable, err := codec.Decode(asset.Immutable); err != nil {
		w.internalErr = true
	} else {
		dump.Immutable = codec.Format(immutable.Value)
	}

	if mutable, err := codec.Decode(asset.Mutable); err != nil {
		w.internalErr = true
	} else {
		dump.Mutable = codec.Format(mutable.Value)
	}

	return dump
}
