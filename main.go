package main

import "github.com/limnoml/oxypred/cmd"

func main() {
	cmd.Execute()
}
