// main is the entry point for the pantry CLI.
package main

import (
	"os"

	"github.com/huangsam/pantry/cmd"
	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/internal/iocache"
)

func main() {
	cmd.SetStoreManager(iocache.Manager)
	defer iocache.CloseStore()

	if err := cmd.Execute(); err != nil {
		iocache.CloseStore()
		contract.LogWarn("pantry", err)
		os.Exit(1)
	}
}
