package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [address]",
	Short: "Print the materialized state of a package or component.",
	Args:  cobra.ExactArgs(1),
	Run:   showRun,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func showRun(cmd *cobra.Command, args []string) {
	params := struct {
		Address string `json:"address"`
	}{
		Address: args[0],
	}

	// The result shape depends on the address kind, so decode loosely and
	// pretty print whatever came back.
	var result map[string]json.RawMessage
	if err := call("show", params, &result); err != nil {
		log.Fatal(err)
	}

	if strings.HasPrefix(args[0], "package_") {
		fmt.Println("Package code size:", string(result["bytes"]))
		return
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(pretty))
}
