// Package domain defines the five synced data domains (profile, settings,
// badges, goals, mood history), their default values, and the mapping
// between local records and remote table rows.
//
// The merge invariant: a remote row missing a field never produces a
// zero-surprise local record — every *FromRemote conversion starts from the
// domain default and overrides only the fields the row carries.
package domain
