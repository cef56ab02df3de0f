package main

import "wallet-sdk/cmd/wallet-cli/cmd"

func main() {
	cmd.Execute()
}
