// Package errs provides the error taxonomy of the gateway API. Every
// failure a caller can branch on carries one of the stable codes below.
package errs

import "errors"

// Set of stable error codes returned in JSON-RPC error responses. The
// -32xxx codes in the reserved range follow the JSON-RPC specification;
// the -32000..-32099 block carries the gateway's own taxonomy.
const (
	CodeParse          = -32700 // Malformed envelope, params, address or key.
	CodeCompile        = -32600 // Manifest did not compile.
	CodeMethodNotFound = -32601 // Unknown method name.
	CodeKeyParse       = -32000 // A signer string did not parse as a public key.
	CodeNotFound       = -32001 // The addressed entity is absent.
	CodeInternal       = -32002 // Decode/validation failure while reading state.
	CodeExecution      = -32003 // The engine could not run the transaction.
	CodeRejected       = -32004 // The transaction ran and its result failed.
	CodeUnknown        = -32603 // Anything the taxonomy does not cover.
)

// Trusted is used to pass an error during the request through the
// application with its taxonomy code attached.
type Trusted struct {
	Err  error
	Code int
	Data any
}

// NewTrusted wraps a provided error with a stable error code. This function
// should be used when handlers encounter expected errors.
func NewTrusted(err error, code int) error {
	return &Trusted{Err: err, Code: code}
}

// NewTrustedData wraps a provided error with a stable error code and a data
// payload carried alongside the message.
func NewTrustedData(err error, code int, data any) error {
	return &Trusted{Err: err, Code: code, Data: data}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}
