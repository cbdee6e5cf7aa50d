package main

import (
	"sigawatch/cmd/siga/commands"
	"sigawatch/lib/osutil"
)

func main() {
	commands.ExecuteContext(osutil.SignalContext())
}
