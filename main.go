package main

import (
	"github.com/avelara/instagate/cmd"
)

func main() {
	cmd.Execute()
}
