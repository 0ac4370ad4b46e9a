// Package cmd contains the gateway client app
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var url string

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:3030", "Url of the gateway.")
}

var rootCmd = &cobra.Command{
	Use:   "radcli",
	Short: "Submit manifests and inspect ledger state over JSON-RPC",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// rpcError mirrors the gateway's error object.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// call posts one JSON-RPC request to the gateway and decodes the result
// into the provided model.
func call(method string, params any, result any) error {
	body, err := json.Marshal(struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Method  string `json:"method"`
		Params  any    `json:"params"`
	}{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(url+"/v1/rpc", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}

	if envelope.Error != nil {
		return fmt.Errorf("gateway error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}

	return json.Unmarshal(envelope.Result, result)
}
