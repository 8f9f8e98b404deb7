package main

import "github.com/jmehdipour/group-load/cmd"

func main() {
	cmd.Execute()
}
