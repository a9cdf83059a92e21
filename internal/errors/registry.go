package errors

import (
	"maps"
	"slices"
)

// Definition is the registered text of an error code.
type Definition struct {
	Category Category
	Message  string
	Detail   string
}

// Codes are grouped by category: config W001-W019, routes W020-W039,
// navigation W040-W059, server W060-W079, cli W080-W099.
var registry = map[string]Definition{
	"W001": {CategoryConfig, "Invalid config file",
		"waypoint.json could not be parsed. It must be a single JSON object."},
	"W002": {CategoryConfig, "Config validation failed",
		"One or more settings in waypoint.json are out of range or missing."},
	"W003": {CategoryConfig, "Config file not found",
		"No waypoint.json was found in the given directory."},

	"W020": {CategoryRoutes, "Invalid routes file",
		"The route declaration file could not be decoded. Each segment may declare index, routes, and either variable or fallback."},
	"W021": {CategoryRoutes, "Route tree validation failed",
		"The route tree has duplicate names, duplicate fixed keys or empty variable keys."},
	"W022": {CategoryRoutes, "Routes file not found",
		"The routes file named in the config or on the command line does not exist."},

	"W040": {CategoryNavigation, "Unresolved route name",
		"A named target referred to a name no route declares. The navigation was skipped."},
	"W041": {CategoryNavigation, "Missing route parameter",
		"A named target did not bind a value for a variable segment on the way to the named route."},
	"W042": {CategoryNavigation, "Redirect loop",
		"Redirects did not settle within the configured limit. An unmatched state was published."},
	"W043": {CategoryNavigation, "External navigation unsupported",
		"An external target was used with a history provider that cannot leave the route tree."},
	"W049": {CategoryNavigation, "Navigation failed", ""},

	"W060": {CategoryServer, "Server failed", "The HTTP server stopped with an error."},
	"W061": {CategoryServer, "Route watcher failed", "The routes source could not be watched for changes."},

	"W080": {CategoryCLI, "Invalid arguments", ""},
	"W081": {CategoryCLI, "Invalid simulation script",
		"Each script line is one of: push TARGET, replace TARGET, back, forward, drain."},
}

// Codes returns every registered code in order.
func Codes() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Lookup returns the definition of code.
func Lookup(code string) (Definition, bool) {
	d, ok := registry[code]
	return d, ok
}

// Register adds or replaces the definition of code. It is not safe to call
// concurrently with New.
func Register(code string, def Definition) {
	registry[code] = def
}
