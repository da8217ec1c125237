package main

import "github.com/itsmostafa/gorepl/cmd"

func main() {
	cmd.Execute()
}
