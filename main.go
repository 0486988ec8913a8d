package main

import (
	"log"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
