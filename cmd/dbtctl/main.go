package main

import "github.com/arkdata/dbtctl/cmd/dbtctl/cmd"

func main() {
	cmd.Execute()
}
