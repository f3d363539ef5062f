package main

import "github.com/awsutils/aws-config-assume-role/cmd"

func main() {
	cmd.Execute()
}
