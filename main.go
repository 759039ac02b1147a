package main

import "github.com/papapumpkin/mapforge/cmd"

func main() {
	cmd.Execute()
}
