// ./main.go
package main

import (
	"github.com/ayushpandey769/feedscraper/cmd"
)

func main() {
	cmd.Execute()
}
