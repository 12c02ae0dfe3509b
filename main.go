package main

import "github.com/andresmejia3/facefx/cmd"

func main() {
	cmd.Execute()
}
