package submit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dRAT3/rad-rpc/business/core/submit"
	"github.com/dRAT3/rad-rpc/foundation/events"
	"github.com/dRAT3/rad-rpc/foundation/ledger"
	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
	"github.com/dRAT3/rad-rpc/foundation/ledger/engine"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Run(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a key: %v", failed, err)
	}
	compressed := hexutil.Encode(crypto.CompressPubkey(&key.PublicKey))
	uncompressed := hexutil.Encode(crypto.FromECDSAPub(&key.PublicKey))

	t.Log("Given the need to submit transactions through the core.")
	{
		t.Logf("\tTest 0:\tWhen running a manifest that publishes a package.")
		{
			core, handle := newCore(t)

			result, err := core.Run(context.Background(), "publish_package 0x0061736d", []string{compressed, uncompressed})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to run the manifest: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to run the manifest.", success)

			if len(result.Packages) != 1 || len(result.Components) != 0 || len(result.ResourceDefs) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould report exactly one new package, got %+v.", failed, result)
			}
			t.Logf("\t%s\tTest 0:\tShould report exactly one new package.", success)

			if len(result.Outputs) != 1 || result.Outputs[0] != result.Packages[0] {
				t.Fatalf("\t%s\tTest 0:\tShould output the package address, got %+v.", failed, result.Outputs)
			}
			t.Logf("\t%s\tTest 0:\tShould output the package address.", success)

			var stored bool
			handle.WithRead(func(r ledger.Reader) {
				_, stored = r.Package(mustParse(t, result.Packages[0]))
			})
			if !stored {
				t.Fatalf("\t%s\tTest 0:\tShould find the package in the store.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould find the package in the store.", success)
		}

		t.Logf("\tTest 1:\tWhen entities of several kinds are created.")
		{
			core, _ := newCore(t)

			manifest := "publish_package 0x0061736d\n" +
				"new_token_fixed GLD Gold 1000\n" +
				"new_component wallet 0x00"

			result, err := core.Run(context.Background(), manifest, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to run the manifest: %v", failed, err)
			}

			if len(result.Packages) != 1 || len(result.ResourceDefs) != 1 || len(result.Components) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould partition the new entities by kind, got %+v.", failed, result)
			}
			t.Logf("\t%s\tTest 1:\tShould partition the new entities by kind.", success)

			if len(result.Outputs) != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould keep one output per instruction, got %d.", failed, len(result.Outputs))
			}
			t.Logf("\t%s\tTest 1:\tShould keep one output per instruction.", success)
		}

		t.Logf("\tTest 2:\tWhen a signer key does not parse.")
		{
			handle := ledger.NewHandle(ledger.NewStore())
			rec := &recordingEngine{}
			core := submit.NewCore(zap.NewNop().Sugar(), handle, rec, events.New())

			_, err := core.Run(context.Background(), "publish_package 0x00", []string{"nothex"})
			if !errors.Is(err, submit.ErrKeyParse) {
				t.Fatalf("\t%s\tTest 2:\tShould fail with a key parse error, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould fail with a key parse error.", success)

			if rec.compiles != 0 || rec.executes != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould never reach the engine, got %d compiles and %d executes.", failed, rec.compiles, rec.executes)
			}
			t.Logf("\t%s\tTest 2:\tShould never reach the engine.", success)
		}

		t.Logf("\tTest 3:\tWhen the manifest does not compile.")
		{
			core, handle := newCore(t)

			_, err := core.Run(context.Background(), "mine_block now", nil)
			if !errors.Is(err, submit.ErrCompile) {
				t.Fatalf("\t%s\tTest 3:\tShould fail with a compile error, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould fail with a compile error.", success)

			checkUntouched(t, handle, 3)
		}

		t.Logf("\tTest 4:\tWhen the transaction runs and is rejected.")
		{
			core, handle := newCore(t)

			setup, err := core.Run(context.Background(), "new_token_fixed GLD Gold 1000\nnew_component wallet 0x00", nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to set up entities: %v", failed, err)
			}

			vaults, err := core.Run(context.Background(),
				"new_vault "+setup.Components[0]+" "+setup.ResourceDefs[0]+"\n"+
					"new_vault "+setup.Components[0]+" "+setup.ResourceDefs[0], nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to create vaults: %v", failed, err)
			}

			from := vaults.Outputs[0][len("Vault(") : len(vaults.Outputs[0])-1]
			to := vaults.Outputs[1][len("Vault(") : len(vaults.Outputs[1])-1]

			_, err = core.Run(context.Background(), "transfer 10 "+from+" "+to, nil)
			if !errors.Is(err, submit.ErrRejected) {
				t.Fatalf("\t%s\tTest 4:\tShould fail with a rejection, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 4:\tShould fail with a rejection.", success)

			id := mustParseVault(t, from)

			var amount uint64
			handle.WithRead(func(r ledger.Reader) {
				v, _ := r.Vault(id)
				amount = v.Amount
			})
			if amount != 0 {
				t.Fatalf("\t%s\tTest 4:\tShould leave the vaults untouched, got %d.", failed, amount)
			}
			t.Logf("\t%s\tTest 4:\tShould leave the vaults untouched.", success)
		}

		t.Logf("\tTest 5:\tWhen the engine can't run the transaction at all.")
		{
			handle := ledger.NewHandle(ledger.NewStore())
			rec := &recordingEngine{execErr: errors.New("transaction not finished")}
			core := submit.NewCore(zap.NewNop().Sugar(), handle, rec, events.New())

			_, err := core.Run(context.Background(), "publish_package 0x00", nil)
			if !errors.Is(err, submit.ErrExecution) {
				t.Fatalf("\t%s\tTest 5:\tShould fail with an execution error, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 5:\tShould fail with an execution error.", success)
		}

		t.Logf("\tTest 6:\tWhen the submission path finishes the transaction.")
		{
			handle := ledger.NewHandle(ledger.NewStore())
			rec := &recordingEngine{}
			core := submit.NewCore(zap.NewNop().Sugar(), handle, rec, events.New())

			if _, err := core.Run(context.Background(), "publish_package 0x00", []string{compressed}); err != nil {
				t.Fatalf("\t%s\tTest 6:\tShould be able to run the manifest: %v", failed, err)
			}

			last := rec.lastTx.Instructions[len(rec.lastTx.Instructions)-1]
			if last.Op != engine.OpEnd || len(last.Signatures) != 1 {
				t.Fatalf("\t%s\tTest 6:\tShould append an end instruction carrying the signer keys.", failed)
			}
			t.Logf("\t%s\tTest 6:\tShould append an end instruction carrying the signer keys.", success)
		}
	}
}

// =============================================================================

func newCore(t *testing.T) (*submit.Core, *ledger.Handle) {
	t.Helper()

	handle := ledger.NewHandle(ledger.NewStore())
	return submit.NewCore(zap.NewNop().Sugar(), handle, engine.New(), events.New()), handle
}

func checkUntouched(t *testing.T, handle *ledger.Handle, testID int) {
	t.Helper()

	// Check the address the failed run would have written had it committed.
	addr := address.Derive(address.KindPackage, hexutil.MustDecode("0x0061736d"))

	var touched bool
	handle.WithRead(func(r ledger.Reader) {
		_, touched = r.Package(addr)
	})
	if touched {
		t.Fatalf("\t%s\tTest %d:\tShould leave the store untouched.", failed, testID)
	}
	t.Logf("\t%s\tTest %d:\tShould leave the store untouched.", success, testID)
}

func mustParse(t *testing.T, s string) address.Address {
	t.Helper()

	addr, err := address.Parse(s)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to parse address %q: %v", failed, s, err)
	}
	return addr
}

func mustParseVault(t *testing.T, s string) address.VaultID {
	t.Helper()

	id, err := address.ParseVaultID(s)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to parse vault id %q: %v", failed, s, err)
	}
	return id
}

// recordingEngine counts engine calls and records the last transaction it
// was asked to execute.
type recordingEngine struct {
	compiles int
	executes int
	lastTx   engine.Transaction
	execErr  error
}

func (r *recordingEngine) Compile(manifest string) (engine.Transaction, error) {
	r.compiles++
	return engine.Transaction{Instructions: []engine.Instruction{{Op: engine.OpPublishPackage}}}, nil
}

func (r *recordingEngine) Execute(store *ledger.Store, tx engine.Transaction) (engine.Outcome, error) {
	r.executes++
	r.lastTx = tx
	if r.execErr != nil {
		return engine.Outcome{}, r.execErr
	}
	return engine.Outcome{}, nil
}
