// Package version holds trowser's build-time version metadata.
package version

// Version is the current semantic version of trowser.
const Version = "0.1.0"
