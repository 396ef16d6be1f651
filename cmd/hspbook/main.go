package main

import "github.com/example/hsp-booker/cmd"

func main() {
	cmd.Execute()
}
