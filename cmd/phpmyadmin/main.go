// Package main provides the phpmyadmin CLI entrypoint.
package main

import (
	"os"

	"github.com/MysticExotic/phpmyadmin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
