package main

import (
	_ "time/tzdata" // captain zones resolve on hosts without zoneinfo

	"github.com/iliyamo/charter-booking/internal/cli"
)

func main() {
	cli.Execute()
}
