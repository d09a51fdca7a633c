package main

import "github.com/kasm-riscv/kasm/cmd/kasm/cmd"

func main() {
	cmd.Execute()
}
