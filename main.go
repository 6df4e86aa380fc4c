package main

import "github.com/semmlerino/curveditor/cmd"

func main() {
	cmd.Execute()
}
