package main

import (
	"fmt"
	"os"

	"github.com/valksor/go-selfup/cmd/selfup/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprint(os.Stderr, commands.DescribeError(err))
		os.Exit(1)
	}
}
