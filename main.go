package main

import "github.com/normanking/egoavatar/cmd"

func main() {
	cmd.Execute()
}
