package main

import "github.com/panic-app/panic-server/cmd"

func main() {
	cmd.Execute()
}
