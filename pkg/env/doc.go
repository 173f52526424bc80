// Package env describes the directory layout of a nouzen prefix and builds
// the shell environment needed to use the programs and libraries installed
// into it.
//
// Debian archives place libraries under multiarch directories such as
// usr/lib/x86_64-linux-gnu, Alpine archives under plain usr/lib. Both are
// searched, followed by the common system library directories.
package env
