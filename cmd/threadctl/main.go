package main

import "github.com/kailas-cloud/threadress/internal/cli"

func main() {
	cli.Execute()
}
