package main

import "github.com/Manu343726/a64asm/cmd"

func main() {
	cmd.Execute()
}
