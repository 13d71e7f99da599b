// Package logger holds the shell's diagnostic logger and its session event
// log.
//
// Diagnostics are leveled, human oriented and go to stderr. Events are
// structured records of what a session did, written as newline delimited JSON
// so they can be replayed into a Report.
package logger
