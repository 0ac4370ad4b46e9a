package ledger_test

import (
	"sync"
	"testing"

	"github.com/dRAT3/rad-rpc/foundation/ledger"
	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_HandleScopes(t *testing.T) {
	addr := address.Derive(address.KindPackage, []byte("scopes"))

	t.Log("Given the need to scope access to the shared store.")
	{
		t.Logf("\tTest 0:\tWhen writing then reading through the handle.")
		{
			handle := ledger.NewHandle(ledger.NewStore())

			handle.WithWrite(func(store *ledger.Store) {
				store.PutPackage(addr, ledger.Package{Code: []byte{0x01}})
			})

			var exists bool
			handle.WithRead(func(store ledger.Reader) {
				_, exists = store.Package(addr)
			})

			if !exists {
				t.Fatalf("\t%s\tTest 0:\tShould observe the write in a later read scope.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould observe the write in a later read scope.", success)
		}
	}
}

// Test_HandleNoTornReads hammers the handle with one writer mutating two
// vaults that always sum to the same total and many readers checking the
// sum. A reader overlapping a writer would observe a torn total.
func Test_HandleNoTornReads(t *testing.T) {
	const total = 5_000
	const rounds = 2_000
	const readers = 8

	component := address.Derive(address.KindComponent, []byte("acct"))
	resource := address.Derive(address.KindResourceDef, []byte("gld"))
	left := address.NewVaultID(component, []byte("left"))
	right := address.NewVaultID(component, []byte("right"))

	store := ledger.NewStore()
	store.PutVault(left, ledger.Vault{Resource: resource, Amount: total})
	store.PutVault(right, ledger.Vault{Resource: resource})
	handle := ledger.NewHandle(store)

	t.Log("Given the need to keep readers consistent under a concurrent writer.")
	{
		t.Logf("\tTest 0:\tWhen %d readers race one writer over %d rounds.", readers, rounds)
		{
			var wg sync.WaitGroup
			var torn sync.Once
			var tornAmount uint64
			done := make(chan struct{})

			for i := 0; i < readers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						select {
						case <-done:
							return
						default:
						}

						handle.WithRead(func(r ledger.Reader) {
							l, _ := r.Vault(left)
							rv, _ := r.Vault(right)
							if l.Amount+rv.Amount != total {
								torn.Do(func() { tornAmount = l.Amount + rv.Amount })
							}
						})
					}
				}()
			}

			for i := 0; i < rounds; i++ {
				handle.WithWrite(func(store *ledger.Store) {
					l, _ := store.Vault(left)
					r, _ := store.Vault(right)
					l.Amount--
					r.Amount++
					store.PutVault(left, l)
					store.PutVault(right, r)
				})
			}

			close(done)
			wg.Wait()

			if tornAmount != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould never observe a torn total, got %d.", failed, tornAmount)
			}
			t.Logf("\t%s\tTest 0:\tShould never observe a torn total.", success)

			handle.WithRead(func(r ledger.Reader) {
				l, _ := r.Vault(left)
				rv, _ := r.Vault(right)
				if l.Amount != total-rounds || rv.Amount != rounds {
					t.Fatalf("\t%s\tTest 0:\tShould end with %d/%d, got %d/%d.", failed, total-rounds, rounds, l.Amount, rv.Amount)
				}
			})
			t.Logf("\t%s\tTest 0:\tShould end with %d/%d.", success, total-rounds, rounds)
		}
	}
}
