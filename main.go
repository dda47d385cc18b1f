package main

import "promptdeck/cmd"

func main() {
	cmd.Execute()
}
