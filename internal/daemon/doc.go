// Package daemon provides the glue used by cybord around the supervisor:
// configuration hot reload and rate limited internal notifications.
package daemon
