package main

import "martianoff/relit/cmd/relit/commands"

func main() {
	commands.Execute()
}
