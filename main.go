package main

import (
	"os"

	"github.com/neomestre/neomestre/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
