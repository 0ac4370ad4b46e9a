package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dRAT3/rad-rpc/foundation/ledger/address"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Compile parses a textual manifest into an instruction sequence. Blank
// lines and lines starting with # are skipped. Any malformed line fails the
// whole compile.
func (*Engine) Compile(manifest string) (Transaction, error) {
	var tx Transaction

	for n, line := range strings.Split(manifest, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		inst, err := compileLine(line)
		if err != nil {
			return Transaction{}, fmt.Errorf("line %d: %w", n+1, err)
		}

		tx.Instructions = append(tx.Instructions, inst)
	}

	if len(tx.Instructions) == 0 {
		return Transaction{}, fmt.Errorf("manifest has no instructions")
	}

	return tx, nil
}

func compileLine(line string) (Instruction, error) {
	fields := strings.Fields(line)
	op, args := Op(fields[0]), fields[1:]

	switch op {
	case OpPublishPackage:
		if err := arity(args, 1); err != nil {
			return Instruction{}, err
		}
		code, err := hexutil.Decode(args[0])
		if err != nil {
			return Instruction{}, fmt.Errorf("code: %w", err)
		}
		return Instruction{Op: op, Code: code}, nil

	case OpNewTokenFixed, OpNewBadgeFixed:
		if err := arity(args, 3); err != nil {
			return Instruction{}, err
		}
		supply, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return Instruction{}, fmt.Errorf("supply: %w", err)
		}
		return Instruction{Op: op, Symbol: args[0], Name: args[1], Supply: supply}, nil

	case OpNewComponent:
		if err := arity(args, 2); err != nil {
			return Instruction{}, err
		}
		state, err := hexutil.Decode(args[1])
		if err != nil {
			return Instruction{}, fmt.Errorf("state: %w", err)
		}
		return Instruction{Op: op, Blueprint: args[0], State: state}, nil

	case OpNewVault:
		if err := arity(args, 2); err != nil {
			return Instruction{}, err
		}
		component, err := parseKind(args[0], address.KindComponent)
		if err != nil {
			return Instruction{}, err
		}
		resource, err := parseKind(args[1], address.KindResourceDef)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Component: component, Resource: resource}, nil

	case OpMint:
		if err := arity(args, 2); err != nil {
			return Instruction{}, err
		}
		amount, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return Instruction{}, fmt.Errorf("amount: %w", err)
		}
		vault, err := address.ParseVaultID(args[1])
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Amount: amount, Vault: vault}, nil

	case OpMintAsset:
		if err := arity(args, 4); err != nil {
			return Instruction{}, err
		}
		vault, err := address.ParseVaultID(args[0])
		if err != nil {
			return Instruction{}, err
		}
		immutable, err := hexutil.Decode(args[2])
		if err != nil {
			return Instruction{}, fmt.Errorf("immutable payload: %w", err)
		}
		mutable, err := hexutil.Decode(args[3])
		if err != nil {
			return Instruction{}, fmt.Errorf("mutable payload: %w", err)
		}
		return Instruction{Op: op, Vault: vault, AssetKey: args[1], Immutable: immutable, Mutable: mutable}, nil

	case OpSetEntry:
		if err := arity(args, 3); err != nil {
			return Instruction{}, err
		}
		collection, err := address.ParseCollectionID(args[0])
		if err != nil {
			return Instruction{}, err
		}
		key, err := hexutil.Decode(args[1])
		if err != nil {
			return Instruction{}, fmt.Errorf("key: %w", err)
		}
		value, err := hexutil.Decode(args[2])
		if err != nil {
			return Instruction{}, fmt.Errorf("value: %w", err)
		}
		return Instruction{Op: op, Collection: collection, Key: key, Value: value}, nil

	case OpTransfer:
		if err := arity(args, 3); err != nil {
			return Instruction{}, err
		}
		amount, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return Instruction{}, fmt.Errorf("amount: %w", err)
		}
		from, err := address.ParseVaultID(args[1])
		if err != nil {
			return Instruction{}, err
		}
		to, err := address.ParseVaultID(args[2])
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Amount: amount, From: from, To: to}, nil

	case OpEnd:
		return Instruction{}, fmt.Errorf("end is reserved for the submission path")
	}

	return Instruction{}, fmt.Errorf("unknown instruction %q", fields[0])
}

func arity(args []string, want int) error {
	if len(args) != want {
		return fmt.Errorf("want %d arguments, got %d", want, len(args))
	}
	return nil
}

func parseKind(s string, kind address.Kind) (address.Address, error) {
	addr, err := address.Parse(s)
	if err != nil {
		return address.Address{}, err
	}
	if addr.Kind() != kind {
		return address.Address{}, fmt.Errorf("%s is not a %s address", s, kind)
	}
	return addr, nil
}
