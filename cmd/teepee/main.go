package main

import (
	"teepee-scraper/cmd/teepee/commands"
	"teepee-scraper/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
