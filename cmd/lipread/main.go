package main

import "github.com/avml/lipread/internal/cli"

func main() {
	cli.Main()
}
