package main

import "github.com/oshokin/composer-wrapper/cmd/composer/cmd"

func main() {
	cmd.Execute()
}
