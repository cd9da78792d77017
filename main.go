package main

import "connector-service/cmd"

func main() {
	cmd.Execute()
}
