// Command reposcout searches GitHub by topic and ranks repositories by the
// quality of their documentation.
package main

import (
	"os"

	"github.com/blackwell-systems/reposcout/internal/app"
)

// Injected at build time:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=$(git rev-parse --short HEAD)"
var (
	version = "dev"
	commit  = ""
)

func main() {
	os.Exit(app.Run(app.BuildInfo{Version: version, Commit: commit}, os.Args[1:]))
}
