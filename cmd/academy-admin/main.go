package main

import "github.com/secacademy/academy-admin/cmd/academy-admin/commands"

func main() {
	commands.Execute()
}
