package main

import "github.com/schoolpay/payments/cmd"

func main() {
	cmd.Execute()
}
