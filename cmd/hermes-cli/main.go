package main

import "github.com/nfrund/hermes/cmd/hermes-cli/cmd"

func main() {
	cmd.Execute()
}
