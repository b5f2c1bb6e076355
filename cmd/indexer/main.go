package main

import (
	"github.com/blockpulse/indexer/cmd"
)

func main() {
	cmd.Execute()
}
