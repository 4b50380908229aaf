package main

import "github.com/frahmantamala/payment-ledger/cmd"

func main() {
	cmd.Execute()
}
