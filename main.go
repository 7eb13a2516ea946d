package main

import "github.com/accraft8/blimsey/cmd"

func main() {
	cmd.Execute()
}
