package main

import "github.com/CraigKelly/unitcube/cmd"

func main() {
	cmd.Execute()
}
