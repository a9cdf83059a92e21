// Package config provides configuration parsing for waypoint.
//
// The configuration is stored in waypoint.json next to the routes file.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "routes": "routes.yaml",
//	  "navigation": {
//	    "maxRedirects": 32,
//	    "initialPath": "/",
//	    "fallback": "not-found"
//	  },
//	  "history": {
//	    "maxEntries": 100,
//	    "storePath": ".waypoint/history"
//	  },
//	  "server": {
//	    "address": ":8080",
//	    "wsPath": "/ws",
//	    "metricsPath": "/metrics",
//	    "prefix": "/app",
//	    "rateLimit": 20,
//	    "rateBurst": 40,
//	    "shutdownTimeout": "30s",
//	    "watchRoutes": true
//	  },
//	  "telemetry": {
//	    "metrics": true,
//	    "tracing": false,
//	    "namespace": "waypoint",
//	    "tracerName": "waypoint"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Routes:", cfg.RoutesPath())
package config
