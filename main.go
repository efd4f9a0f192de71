package main

import "photo-curator/cmd"

func main() {
	cmd.Execute()
}
