package main

import "github.com/thirdweb-dev/treasury-snapshot/cmd"

func main() {
	cmd.Execute()
}
