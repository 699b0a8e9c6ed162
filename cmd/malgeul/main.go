// Command malgeul runs programs written in Korean sentences.
package main

import "github.com/funvibe/malgeul/pkg/cli"

func main() {
	cli.Run()
}
