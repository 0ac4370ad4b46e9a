// Package submit implements the transaction submission path: signer key
// parsing, exclusive ledger access, driving the execution engine, and
// mapping its outcome into the response model.
package submit

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dRAT3/rad-rpc/foundation/events"
	"github.com/dRAT3/rad-rpc/foundation/ledger"
	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
	"github.com/dRAT3/rad-rpc/foundation/ledger/codec"
	"github.com/dRAT3/rad-rpc/foundation/ledger/engine"
	"github.com/dRAT3/rad-rpc/foundation/web"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Set of error variants the submission path can fail with. Callers branch
// on these: a manifest that did not compile, an engine that could not run,
// and a transaction that ran and was rejected are different failures.
var (
	ErrKeyParse  = errors.New("can't parse signer key")
	ErrCompile   = errors.New("transaction compile error")
	ErrExecution = errors.New("transaction execution error")
	ErrRejected  = errors.New("transaction rejected")
)

// Engine represents the behavior required of the execution engine. The
// engine is an external capability: the core never assumes anything about
// it beyond this contract.
type Engine interface {
	Compile(manifest string) (engine.Transaction, error)
	Execute(store *ledger.Store, tx engine.Transaction) (engine.Outcome, error)
}

// Result is the response model of a successful submission. New entities are
// partitioned by address kind in the order the engine produced them;
// outputs keep the engine's order exactly.
type Result struct {
	Packages     []string
	Components   []string
	ResourceDefs []string
	Outputs      []string
}

// Core manages the transaction submission api.
type Core struct {
	log    *zap.SugaredLogger
	handle *ledger.Handle
	engine Engine
	evts   *events.Events
}

// NewCore constructs a core for the transaction submission api.
func NewCore(log *zap.SugaredLogger, handle *ledger.Handle, eng Engine, evts *events.Events) *Core {
	return &Core{
		log:    log,
		handle: handle,
		engine: eng,
		evts:   evts,
	}
}

// Run compiles and executes the manifest as one transaction signed by the
// specified signer keys. All signer strings are parsed before any ledger
// access: one bad key aborts the whole request.
func (c *Core) Run(ctx context.Context, manifest string, signers []string) (Result, error) {
	signatures := make([]*ecdsa.PublicKey, 0, len(signers))
	for _, signer := range signers {
		key, err := parseKey(signer)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %s", ErrKeyParse, err)
		}
		signatures = append(signatures, key)
	}

	var compileErr error
	var execErr error
	var outcome engine.Outcome

	// The whole compile/execute sequence holds exclusive access. A compile
	// failure is recorded and the scope exits cleanly; no lock survives
	// this call.
	c.handle.WithWrite(func(store *ledger.Store) {
		tx, err := c.engine.Compile(manifest)
		if err != nil {
			compileErr = err
			return
		}

		tx.Instructions = append(tx.Instructions, engine.Instruction{
			Op:         engine.OpEnd,
			Signatures: signatures,
		})

		outcome, execErr = c.engine.Execute(store, tx)
	})

	switch {
	case compileErr != nil:
		return Result{}, fmt.Errorf("%w: %s", ErrCompile, compileErr)

	case execErr != nil:
		return Result{}, fmt.Errorf("%w: %s", ErrExecution, execErr)

	case outcome.Err != nil:
		return Result{}, fmt.Errorf("%w: %s", ErrRejected, outcome.Err)
	}

	result := Result{
		Packages:     []string{},
		Components:   []string{},
		ResourceDefs: []string{},
		Outputs:      make([]string, 0, len(outcome.Outputs)),
	}

	for _, output := range outcome.Outputs {
		result.Outputs = append(result.Outputs, codec.Format(output))
	}

	for _, entity := range outcome.NewEntities {
		switch entity.Kind() {
		case address.KindPackage:
			result.Packages = append(result.Packages, entity.String())
		case address.KindComponent:
			result.Components = append(result.Components, entity.String())
		case address.KindResourceDef:
			result.ResourceDefs = append(result.ResourceDefs, entity.String())
		}
	}

	c.log.Infow("run", "traceid", web.GetTraceID(ctx), "entities", len(outcome.NewEntities), "outputs", len(outcome.Outputs), "signers", len(signatures))
	c.evts.Publish("submit: transaction executed: entities[%d] outputs[%d]", len(outcome.NewEntities), len(outcome.Outputs))

	return result, nil
}

// parseKey converts a hex encoded public key string into its key value.
// Both 33 byte compressed and 65 byte uncompressed forms are accepted.
func parseKey(signer string) (*ecdsa.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(signer, "0x"))
	if err != nil {
		return nil, fmt.Errorf("bad hex %q: %w", signer, err)
	}

	if len(raw) == 33 {
		return crypto.DecompressPubkey(raw)
	}

	return crypto.UnmarshalPubkey(raw)
}
