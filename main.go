package main

import "github.com/ValentinKolb/kvbase/cmd"

func main() {
	cmd.Execute()
}
