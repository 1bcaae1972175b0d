package main

import (
	"context"
	"os"

	"github.com/bashhack/flock/internal/config"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	versionInfo := config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	app := NewDefaultApp(versionInfo)
	app.exit(app.Execute(context.Background(), os.Args[1:]))
}
