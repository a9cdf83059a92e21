//go:build !waypoint_strict

package navigation

const strict = false
