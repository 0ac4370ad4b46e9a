// Package engine implements the transaction execution engine consumed by
// the submission path: a manifest compiler and an executor that applies
// compiled instruction sequences to a mutable store. The gateway treats the
// engine as an opaque capability; this package is its in-process binding.
package engine

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"

	"github.com/dRAT3/rad-rpc/foundation/ledger"
	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
	"github.com/dRAT3/rad-rpc/foundation/ledger/codec"
	"github.com/google/uuid"
)

// Op identifies a single instruction kind.
type Op string

// Set of instructions the engine can execute.
const (
	OpPublishPackage Op = "publish_package"
	OpNewTokenFixed  Op = "new_token_fixed"
	OpNewBadgeFixed  Op = "new_badge_fixed"
	OpNewComponent   Op = "new_component"
	OpNewVault       Op = "new_vault"
	OpMint           Op = "mint"
	OpMintAsset      Op = "mint_nft"
	OpSetEntry       Op = "set_entry"
	OpTransfer       Op = "transfer"
	OpEnd            Op = "end"
)

// Instruction is one compiled ledger instruction. Only the fields for the
// carried op are meaningful.
type Instruction struct {
	Op Op

	Code       []byte
	Symbol     string
	Name       string
	Supply     uint64
	Blueprint  string
	State      []byte
	Component  address.Address
	Resource   address.Address
	Amount     uint64
	Vault      address.VaultID
	From       address.VaultID
	To         address.VaultID
	Collection address.CollectionID
	Key        []byte
	Value      []byte
	AssetKey   string
	Immutable  []byte
	Mutable    []byte
	Signatures []*ecdsa.PublicKey
}

// Transaction is a compiled instruction sequence. The submission path
// appends the finishing end instruction carrying the signer keys before
// handing the transaction to Execute.
type Transaction struct {
	Instructions []Instruction
}

// Outcome is the result of a transaction that ran. Err is non-nil when the
// transaction ran and its logical result failed; in that case no state
// change is committed and Outputs/NewEntities are empty.
type Outcome struct {
	Outputs     []codec.Value
	NewEntities []address.Address
	Err         error
}

// Engine compiles manifests and executes compiled transactions.
type Engine struct{}

// New constructs an engine.
func New() *Engine {
	return &Engine{}
}

// Execute applies the transaction to the store. A returned error means the
// engine could not run the transaction at all; a rejection of a transaction
// that did run is carried inside the outcome. Committed effects are atomic:
// a rejected transaction leaves the store untouched.
func (*Engine) Execute(store *ledger.Store, tx Transaction) (Outcome, error) {
	if len(tx.Instructions) == 0 {
		return Outcome{}, fmt.Errorf("empty instruction sequence")
	}
	for i, inst := range tx.Instructions {
		if inst.Op == OpEnd && i != len(tx.Instructions)-1 {
			return Outcome{}, fmt.Errorf("end instruction at position %d of %d", i, len(tx.Instructions))
		}
	}
	if tx.Instructions[len(tx.Instructions)-1].Op != OpEnd {
		return Outcome{}, fmt.Errorf("transaction not finished with end instruction")
	}

	run := run{store: store, staged: ledger.NewStore(), nonce: uuid.NewString()}

	for i, inst := range tx.Instructions[:len(tx.Instructions)-1] {
		output, err := run.apply(i, inst)
		if err != nil {
			return Outcome{Err: fmt.Errorf("instruction %d (%s): %w", i, inst.Op, err)}, nil
		}
		run.outputs = append(run.outputs, output)
	}

	run.commit()

	return Outcome{
		Outputs:     run.outputs,
		NewEntities: run.newEntities,
	}, nil
}

// =============================================================================

// run holds the in-flight execution state. Writes land in the staged store
// and are committed in one step so a rejected transaction has no effect.
// The nonce is unique per execution: ids minted by this run can never
// re-derive an id an earlier transaction already owns.
type run struct {
	store       *ledger.Store
	staged      *ledger.Store
	nonce       string
	outputs     []codec.Value
	newEntities []address.Address
	commits     []func(*ledger.Store)
}

func (r *run) apply(index int, inst Instruction) (codec.Value, error) {
	switch inst.Op {
	case OpPublishPackage:
		addr := address.Derive(address.KindPackage, inst.Code)
		pkg := ledger.Package{Code: inst.Code}
		r.stage(func(s *ledger.Store) { s.PutPackage(addr, pkg) })
		r.newEntities = append(r.newEntities, addr)
		return codec.Addr(addr), nil

	case OpNewTokenFixed, OpNewBadgeFixed:
		addr := address.Derive(address.KindResourceDef, []byte(inst.Symbol), []byte(inst.Name))
		rd := ledger.ResourceDef{
			Name:        inst.Name,
			Symbol:      inst.Symbol,
			NonFungible: inst.Op == OpNewBadgeFixed,
			Supply:      inst.Supply,
		}
		r.stage(func(s *ledger.Store) { s.PutResourceDef(addr, rd) })
		r.newEntities = append(r.newEntities, addr)
		return codec.Addr(addr), nil

	case OpNewComponent:
		if _, err := codec.Decode(inst.State); err != nil {
			return codec.Value{}, fmt.Errorf("component state: %w", err)
		}
		addr := address.Derive(address.KindComponent, []byte(inst.Blueprint), inst.State)
		cmp := ledger.Component{
			Package:   address.Derive(address.KindPackage, []byte("genesis/system")),
			Blueprint: inst.Blueprint,
			State:     inst.State,
		}
		r.stage(func(s *ledger.Store) { s.PutComponent(addr, cmp) })
		r.newEntities = append(r.newEntities, addr)
		return codec.Addr(addr), nil

	case OpNewVault:
		if _, exists := r.component(inst.Component); !exists {
			return codec.Value{}, fmt.Errorf("component %s does not exist", inst.Component)
		}
		if _, exists := r.resourceDef(inst.Resource); !exists {
			return codec.Value{}, fmt.Errorf("resource %s does not exist", inst.Resource)
		}
		vid := address.NewVaultID(inst.Component, []byte(r.nonce), binary.BigEndian.AppendUint64(nil, uint64(index)))
		vault := ledger.Vault{Resource: inst.Resource}
		r.stage(func(s *ledger.Store) { s.PutVault(vid, vault) })
		return codec.VaultRef(vid), nil

	case OpMint:
		vault, exists := r.vault(inst.Vault)
		if !exists {
			return codec.Value{}, fmt.Errorf("vault %s does not exist", inst.Vault)
		}
		vault.Amount += inst.Amount
		vid := inst.Vault
		r.stage(func(s *ledger.Store) { s.PutVault(vid, vault) })
		return codec.Unit(), nil

	case OpMintAsset:
		vault, exists := r.vault(inst.Vault)
		if !exists {
			return codec.Value{}, fmt.Errorf("vault %s does not exist", inst.Vault)
		}
		rd, exists := r.resourceDef(vault.Resource)
		if !exists {
			return codec.Value{}, fmt.Errorf("resource %s does not exist", vault.Resource)
		}
		if !rd.NonFungible {
			return codec.Value{}, fmt.Errorf("resource %s is fungible", vault.Resource)
		}
		vault.Amount++
		vault.Assets = append(vault.Assets, inst.AssetKey)
		vid := inst.Vault
		key := ledger.AssetKey{Resource: vault.Resource, Key: inst.AssetKey}
		asset := ledger.Asset{Immutable: inst.Immutable, Mutable: inst.Mutable}
		r.stage(func(s *ledger.Store) {
			s.PutVault(vid, vault)
			s.PutAsset(key, asset)
		})
		return codec.Unit(), nil

	case OpSetEntry:
		id := inst.Collection
		entry := ledger.Entry{Key: inst.Key, Value: inst.Value}
		r.stage(func(s *ledger.Store) { s.PutCollectionEntry(id, entry) })
		return codec.Unit(), nil

	case OpTransfer:
		from, exists := r.vault(inst.From)
		if !exists {
			return codec.Value{}, fmt.Errorf("vault %s does not exist", inst.From)
		}
		to, exists := r.vault(inst.To)
		if !exists {
			return codec.Value{}, fmt.Errorf("vault %s does not exist", inst.To)
		}
		if from.Resource != to.Resource {
			return codec.Value{}, fmt.Errorf("resource mismatch: %s vs %s", from.Resource, to.Resource)
		}
		if from.Amount < inst.Amount {
			return codec.Value{}, fmt.Errorf("insufficient balance: have %d, need %d", from.Amount, inst.Amount)
		}
		from.Amount -= inst.Amount
		to.Amount += inst.Amount
		fromID, toID := inst.From, inst.To
		r.stage(func(s *ledger.Store) {
			s.PutVault(fromID, from)
			s.PutVault(toID, to)
		})
		return codec.Unit(), nil
	}

	return codec.Value{}, fmt.Errorf("unsupported op %q", inst.Op)
}

// stage records a write against both the staged store, so later
// instructions of the same transaction see it, and the commit log.
func (r *run) stage(put func(*ledger.Store)) {
	put(r.staged)
	r.commits = append(r.commits, put)
}

func (r *run) commit() {
	for _, put := range r.commits {
		put(r.store)
	}
}

// Reads consult the staged store first so the transaction observes its own
// uncommitted writes.

func (r *run) component(addr address.Address) (ledger.Component, bool) {
	if c, exists := r.staged.Component(addr); exists {
		return c, true
	}
	return r.store.Component(addr)
}

func (r *run) resourceDef(addr address.Address) (ledger.ResourceDef, bool) {
	if rd, exists := r.staged.ResourceDef(addr); exists {
		return rd, true
	}
	return r.store.ResourceDef(addr)
}

func (r *run) vault(id address.VaultID) (ledger.Vault, bool) {
	if v, exists := r.staged.Vault(id); exists {
		return v, true
	}
	return r.store.Vault(id)
}
