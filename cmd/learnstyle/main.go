// cmd/learnstyle/main.go
package main

import "learnstyle-workers/internal/cli"

func main() {
	cli.Execute()
}
