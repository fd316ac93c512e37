package main

import (
	cmd "github.com/kerbaras/mirrorbook/cmd/mirrorbook"
)

func main() {
	cmd.Execute()
}
