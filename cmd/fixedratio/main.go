package main

import (
	"os"

	"github.com/davincilabs/fixedratio/cmd/fixedratio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
