package main

import "github.com/josephlewis42/qicmd/cmd"

func main() {
	cmd.Execute()
}
