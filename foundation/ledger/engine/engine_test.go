package engine_test

import (
	"testing"

	"github.com/dRAT3/rad-rpc/foundation/ledger"
	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
	"github.com/dRAT3/rad-rpc/foundation/ledger/codec"
	"github.com/dRAT3/rad-rpc/foundation/ledger/engine"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Compile(t *testing.T) {
	type table struct {
		name     string
		manifest string
		ok       bool
	}

	tt := []table{
		{name: "publish", manifest: "publish_package 0x0061736d", ok: true},
		{name: "token", manifest: "new_token_fixed GLD Gold 1000", ok: true},
		{name: "comments", manifest: "# a comment\n\npublish_package 0x00\n", ok: true},
		{name: "unknown", manifest: "mine_block now", ok: false},
		{name: "badhex", manifest: "publish_package nothex", ok: false},
		{name: "badsupply", manifest: "new_token_fixed GLD Gold lots", ok: false},
		{name: "arity", manifest: "publish_package", ok: false},
		{name: "reserved", manifest: "end", ok: false},
		{name: "empty", manifest: "# nothing here\n", ok: false},
	}

	eng := engine.New()

	t.Log("Given the need to compile manifests.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen compiling the %s manifest.", testID, tst.name)
			{
				_, err := eng.Compile(tst.manifest)

				if tst.ok && err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to compile the manifest: %v", failed, testID, err)
				}
				if !tst.ok && err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould reject the manifest.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get the expected compile result.", success, testID)
			}
		}
	}
}

func Test_Execute(t *testing.T) {
	eng := engine.New()

	t.Log("Given the need to execute compiled transactions.")
	{
		t.Logf("\tTest 0:\tWhen the end instruction is missing.")
		{
			store := ledger.NewStore()

			tx, err := eng.Compile("publish_package 0x0061736d")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to compile the manifest: %v", failed, err)
			}

			if _, err := eng.Execute(store, tx); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould not be able to run an unfinished transaction.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not be able to run an unfinished transaction.", success)
		}

		t.Logf("\tTest 1:\tWhen publishing a package.")
		{
			store := ledger.NewStore()
			code := hexutil.MustDecode("0x0061736d")

			outcome := execute(t, eng, store, "publish_package 0x0061736d")
			if outcome.Err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould run without rejection: %v", failed, outcome.Err)
			}
			t.Logf("\t%s\tTest 1:\tShould run without rejection.", success)

			addr := address.Derive(address.KindPackage, code)
			pkg, exists := store.Package(addr)
			if !exists || len(pkg.Code) != len(code) {
				t.Fatalf("\t%s\tTest 1:\tShould find the published package in the store.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould find the published package in the store.", success)

			if len(outcome.NewEntities) != 1 || outcome.NewEntities[0] != addr {
				t.Fatalf("\t%s\tTest 1:\tShould report the new package entity.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould report the new package entity.", success)

			if len(outcome.Outputs) != 1 || codec.Format(outcome.Outputs[0]) != addr.String() {
				t.Fatalf("\t%s\tTest 1:\tShould output the package address.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould output the package address.", success)
		}

		t.Logf("\tTest 2:\tWhen minting and transferring between vaults.")
		{
			store := ledger.NewStore()

			state := encodeHex(t, codec.Unit())
			outcome := execute(t, eng, store,
				"new_token_fixed GLD Gold 1000\n"+
					"new_component wallet "+state+"\n"+
					"new_component wallet2 "+state)
			if outcome.Err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould set up entities without rejection: %v", failed, outcome.Err)
			}

			resource := outcome.NewEntities[0]
			comp1 := outcome.NewEntities[1]
			comp2 := outcome.NewEntities[2]

			outcome = execute(t, eng, store,
				"new_vault "+comp1.String()+" "+resource.String()+"\n"+
					"new_vault "+comp2.String()+" "+resource.String())
			if outcome.Err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould create vaults without rejection: %v", failed, outcome.Err)
			}

			vid1 := codec.Format(outcome.Outputs[0])
			vid2 := codec.Format(outcome.Outputs[1])
			vid1 = vid1[len("Vault(") : len(vid1)-1]
			vid2 = vid2[len("Vault(") : len(vid2)-1]

			outcome = execute(t, eng, store,
				"mint 100 "+vid1+"\n"+
					"transfer 40 "+vid1+" "+vid2)
			if outcome.Err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould transfer without rejection: %v", failed, outcome.Err)
			}
			t.Logf("\t%s\tTest 2:\tShould transfer without rejection.", success)

			id1, _ := address.ParseVaultID(vid1)
			id2, _ := address.ParseVaultID(vid2)

			v1, _ := store.Vault(id1)
			v2, _ := store.Vault(id2)
			if v1.Amount != 60 || v2.Amount != 40 {
				t.Fatalf("\t%s\tTest 2:\tShould hold 60/40 after transfer, got %d/%d.", failed, v1.Amount, v2.Amount)
			}
			t.Logf("\t%s\tTest 2:\tShould hold 60/40 after transfer.", success)
		}

		t.Logf("\tTest 3:\tWhen a transfer exceeds the balance.")
		{
			store := ledger.NewStore()

			state := encodeHex(t, codec.Unit())
			outcome := execute(t, eng, store,
				"new_token_fixed GLD Gold 1000\n"+
					"new_component wallet "+state)
			resource := outcome.NewEntities[0]
			comp := outcome.NewEntities[1]

			outcome = execute(t, eng, store,
				"new_vault "+comp.String()+" "+resource.String()+"\n"+
					"new_vault "+comp.String()+" "+resource.String())
			vid1 := codec.Format(outcome.Outputs[0])
			vid2 := codec.Format(outcome.Outputs[1])
			vid1 = vid1[len("Vault(") : len(vid1)-1]
			vid2 = vid2[len("Vault(") : len(vid2)-1]

			outcome = execute(t, eng, store, "mint 10 "+vid1)
			if outcome.Err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould mint without rejection: %v", failed, outcome.Err)
			}

			outcome = execute(t, eng, store, "mint 5 "+vid1+"\ntransfer 100 "+vid1+" "+vid2)
			if outcome.Err == nil {
				t.Fatalf("\t%s\tTest 3:\tShould reject the overdraft.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould reject the overdraft.", success)

			id1, _ := address.ParseVaultID(vid1)
			v1, _ := store.Vault(id1)
			if v1.Amount != 10 {
				t.Fatalf("\t%s\tTest 3:\tShould leave the store untouched by the rejected transaction, got %d.", failed, v1.Amount)
			}
			t.Logf("\t%s\tTest 3:\tShould leave the store untouched by the rejected transaction.", success)
		}

		t.Logf("\tTest 4:\tWhen vaults are created at instruction positions 256 apart.")
		{
			store := ledger.NewStore()

			state := encodeHex(t, codec.Unit())
			outcome := execute(t, eng, store,
				"new_token_fixed GLD Gold 1000\n"+
					"new_component wallet "+state)
			if outcome.Err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould set up entities without rejection: %v", failed, outcome.Err)
			}

			resource := outcome.NewEntities[0]
			comp := outcome.NewEntities[1]

			var tx engine.Transaction
			tx.Instructions = append(tx.Instructions, engine.Instruction{Op: engine.OpNewVault, Component: comp, Resource: resource})
			for i := 0; i < 255; i++ {
				tx.Instructions = append(tx.Instructions, engine.Instruction{Op: engine.OpNewTokenFixed, Symbol: "PAD", Name: "Padding", Supply: 1})
			}
			tx.Instructions = append(tx.Instructions, engine.Instruction{Op: engine.OpNewVault, Component: comp, Resource: resource})
			tx.Instructions = append(tx.Instructions, engine.Instruction{Op: engine.OpEnd})

			outcome, err := eng.Execute(store, tx)
			if err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to run the transaction: %v", failed, err)
			}
			if outcome.Err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould run without rejection: %v", failed, outcome.Err)
			}

			if codec.Format(outcome.Outputs[0]) == codec.Format(outcome.Outputs[256]) {
				t.Fatalf("\t%s\tTest 4:\tShould give the two vaults distinct ids, got %s twice.", failed, codec.Format(outcome.Outputs[0]))
			}
			t.Logf("\t%s\tTest 4:\tShould give the two vaults distinct ids.", success)
		}

		t.Logf("\tTest 5:\tWhen the same vault manifest runs twice.")
		{
			store := ledger.NewStore()

			state := encodeHex(t, codec.Unit())
			outcome := execute(t, eng, store,
				"new_token_fixed GLD Gold 1000\n"+
					"new_component wallet "+state)
			resource := outcome.NewEntities[0]
			comp := outcome.NewEntities[1]

			manifest := "new_vault " + comp.String() + " " + resource.String()

			outcome = execute(t, eng, store, manifest)
			vid1 := codec.Format(outcome.Outputs[0])
			vid1 = vid1[len("Vault(") : len(vid1)-1]

			outcome = execute(t, eng, store, manifest)
			vid2 := codec.Format(outcome.Outputs[0])
			vid2 = vid2[len("Vault(") : len(vid2)-1]

			if vid1 == vid2 {
				t.Fatalf("\t%s\tTest 5:\tShould give each run its own vault id, got %s twice.", failed, vid1)
			}
			t.Logf("\t%s\tTest 5:\tShould give each run its own vault id.", success)

			outcome = execute(t, eng, store, "mint 50 "+vid1)
			if outcome.Err != nil {
				t.Fatalf("\t%s\tTest 5:\tShould mint without rejection: %v", failed, outcome.Err)
			}

			outcome = execute(t, eng, store, manifest)
			if outcome.Err != nil {
				t.Fatalf("\t%s\tTest 5:\tShould create another vault without rejection: %v", failed, outcome.Err)
			}

			id1, _ := address.ParseVaultID(vid1)
			v1, _ := store.Vault(id1)
			if v1.Amount != 50 {
				t.Fatalf("\t%s\tTest 5:\tShould keep the minted balance across later runs, got %d.", failed, v1.Amount)
			}
			t.Logf("\t%s\tTest 5:\tShould keep the minted balance across later runs.", success)
		}
	}
}

// execute compiles the manifest, finishes it with an end instruction, and
// runs it against the store.
func execute(t *testing.T, eng *engine.Engine, store *ledger.Store, manifest string) engine.Outcome {
	t.Helper()

	tx, err := eng.Compile(manifest)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to compile the manifest: %v", failed, err)
	}

	tx.Instructions = append(tx.Instructions, engine.Instruction{Op: engine.OpEnd})

	outcome, err := eng.Execute(store, tx)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to run the transaction: %v", failed, err)
	}

	return outcome
}

// encodeHex encodes the value and returns its hex form for use in a
// manifest line.
func encodeHex(t *testing.T, v codec.Value) string {
	t.Helper()

	blob, err := codec.Encode(v)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to encode the value: %v", failed, err)
	}
	return hexutil.Encode(blob)
}
