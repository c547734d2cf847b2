// Command pagecheck verifies the state of web pages against declared checks.
package main

import "github.com/devicelab-dev/pagecheck/pkg/cli"

func main() {
	cli.Execute()
}
