package main

import (
	"github.com/rvianello/bonusmalus/internal/cli"
)

func main() {
	cli.Execute()
}
