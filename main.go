package main

import "github.com/microsoft/ghcrawler-datalake-etl/cmd"

func main() {
	cmd.Execute()
}
