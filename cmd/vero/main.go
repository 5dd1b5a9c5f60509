package main

import "github.com/verolang/vero/cmd"

func main() {
	cmd.Execute()
}
