package main

import (
	"github.com/manifest-network/blockfeed/cmd/blockfeed"
)

func main() {
	blockfeed.Execute()
}
