package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	manifestPath string
	signers      []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile and execute a transaction manifest.",
	Run:   runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Path to the manifest file. Reads stdin when omitted.")
	runCmd.Flags().StringSliceVarP(&signers, "signer", "s", nil, "Hex encoded signer public key. Repeatable.")
}

func runRun(cmd *cobra.Command, args []string) {
	var manifest []byte
	var err error

	switch manifestPath {
	case "":
		manifest, err = io.ReadAll(os.Stdin)
	default:
		manifest, err = os.ReadFile(manifestPath)
	}
	if err != nil {
		log.Fatal(err)
	}

	params := struct {
		Manifest string   `json:"manifest"`
		Signers  []string `json:"signers"`
	}{
		Manifest: string(manifest),
		Signers:  signers,
	}

	var result struct {
		Packages     []string `json:"packages"`
		Components   []string `json:"components"`
		ResourceDefs []string `json:"resource_defs"`
		Outputs      []string `json:"outputs"`
	}
	if err := call("run", params, &result); err != nil {
		log.Fatal(err)
	}

	for _, pkg := range result.Packages {
		fmt.Println("New Package:", pkg)
	}
	for _, cmp := range result.Components {
		fmt.Println("New Component:", cmp)
	}
	for _, rd := range result.ResourceDefs {
		fmt.Println("New ResourceDef:", rd)
	}
	for i, output := range result.Outputs {
		fmt.Printf("Output[%d]: %s\n", i, output)
	}
}
