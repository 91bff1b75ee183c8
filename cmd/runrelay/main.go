package main

import "github.com/runrelay/runrelay/cmd/runrelay/internal"

func main() {
	internal.Execute()
}
