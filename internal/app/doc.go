// Package app wires the closing report components together and runs the
// web server.
//
// Build assembles the dependency graph from a config.Config: the outbound
// fetchers, one company directory loader per exchange with its file or
// Redis cache, the optional SQLite archive, telemetry providers and the
// report, directory and health services. Both the command line tool and
// the web server start from Build.
//
// NewApplication puts the HTTP router in front of those components. Run
// blocks until SIGINT or SIGTERM and then shuts down within the configured
// shutdown timeout.
//
//	cfg, _ := config.Load("")
//	components, err := app.Build(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return app.NewApplication(components).Run()
package app
