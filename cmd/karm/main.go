package main

import "karmlang/karm/cmd/karm/commands"

func main() {
	commands.Execute()
}
