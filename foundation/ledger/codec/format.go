package codec

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Format converts a decoded value tree into its canonical display string.
// The format is stable: equal trees always produce equal strings.
func Format(v Value) string {
	var sb strings.Builder
	format(&sb, v)
	return sb.String()
}

func format(sb *strings.Builder, v Value) {
	switch v.Kind {
	case KindUnit:
		sb.WriteString("()")

	case KindBool:
		sb.WriteString(strconv.FormatBool(v.Bool))

	case KindI64:
		sb.WriteString(strconv.FormatInt(v.Int, 10))

	case KindU64:
		sb.WriteString(strconv.FormatUint(v.Uint, 10))
		sb.WriteByte('u')

	case KindString:
		sb.WriteString(strconv.Quote(v.Str))

	case KindBytes:
		sb.WriteString(hexutil.Encode(v.Bytes))

	case KindList:
		sb.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, e)
		}
		sb.WriteByte(']')

	case KindMap:
		sb.WriteByte('{')
		for i, entry := range v.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, entry.Key)
			sb.WriteString(": ")
			format(sb, entry.Value)
		}
		sb.WriteByte('}')

	case KindAddress:
		sb.WriteString(v.Addr.String())

	case KindCollectionRef:
		sb.WriteString("Collection(")
		sb.WriteString(v.Collection.String())
		sb.WriteByte(')')

	case KindVaultRef:
		sb.WriteString("Vault(")
		sb.WriteString(v.Vault.String())
		sb.WriteByte(')')

	case KindDecimal:
		sb.WriteString(v.Str)

	default:
		sb.WriteString("<invalid>")
	}
}
