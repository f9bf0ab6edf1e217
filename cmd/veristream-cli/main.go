package main

import (
	"github.com/veristream/veristream-internal/internal/cli"
)

func main() {
	cli.Execute()
}
