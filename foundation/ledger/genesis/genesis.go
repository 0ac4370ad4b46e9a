// Package genesis seeds a fresh store with the substates every node starts
// from: the system package and the native token definition.
package genesis

import (
	"github.com/dRAT3/rad-rpc/foundation/ledger"
	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
)

// Genesis carries the addresses of the bootstrapped entities.
type Genesis struct {
	SystemPackage address.Address
	NativeToken   address.Address
}

// systemCode is the placeholder code blob published for the system package.
// The gateway never executes package code; only its presence and size are
// observable.
var systemCode = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Bootstrap writes the genesis substates into the specified store and
// returns their addresses. Bootstrapping is deterministic: every node
// derives the same addresses.
func Bootstrap(store *ledger.Store) Genesis {
	systemPackage := address.Derive(address.KindPackage, []byte("genesis/system"))
	store.PutPackage(systemPackage, ledger.Package{
		Code: systemCode,
	})

	nativeToken := address.Derive(address.KindResourceDef, []byte("genesis/native-token"))
	store.PutResourceDef(nativeToken, ledger.ResourceDef{
		Name:   "Radix",
		Symbol: "XRD",
		Supply: 1_000_000_000,
	})

	return Genesis{
		SystemPackage: systemPackage,
		NativeToken:   nativeToken,
	}
}
