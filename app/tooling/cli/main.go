package main

import (
	"github.com/dRAT3/rad-rpc/app/tooling/cli/cmd"
)

func main() {
	cmd.Execute()
}
