package main

import (
	"os"

	"hpic-membership/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
