package main

import "github.com/hoppxi/sgstatus/internal/cmd"

func main() {
	cmd.Execute()
}
