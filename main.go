package main

import "github.com/insightdelivered/statement-ledger/internal/cli"

func main() {
	cli.Execute()
}
