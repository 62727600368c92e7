package main

import (
	_ "time/tzdata"

	"github.com/nizwa-nursing/cpd-portal/cmd"
)

func main() {
	cmd.Execute()
}
