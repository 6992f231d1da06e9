package main

import "github.com/manmal/planz/cmd"

func main() {
	cmd.Execute()
}
