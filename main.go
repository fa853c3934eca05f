package main

import (
	"github.com/opsre/zenstat/cmd"
)

func main() {
	cmd.Execute()
}
