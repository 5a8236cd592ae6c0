package main

import (
	cmd "github.com/bawanisandunika/wattpad-downloader/cmd/wattpad"
)

func main() {
	cmd.Execute()
}
