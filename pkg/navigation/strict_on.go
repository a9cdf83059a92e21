//go:build waypoint_strict

package navigation

// strict makes navigation without a router panic.
const strict = true
