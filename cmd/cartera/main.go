package main

import "github.com/jhoicas/Cartera-api/internal/interfaces/cli"

func main() {
	cli.Execute()
}
