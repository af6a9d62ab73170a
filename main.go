package main

import "github.com/WDegan/metafootage-davinci-resolve/internal/cli"

func main() {
	cli.Main()
}
