package main

import "github.com/KaramelBytes/visloom/cmd"

func main() {
	cmd.Execute()
}
