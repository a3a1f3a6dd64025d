// Cachevis visualizes how direct-mapped, set-associative, and
// fully-associative caches map addresses and replace lines.
package main

import "github.com/sarchlab/cachevis/cmd/cachevis/cmd"

func main() {
	cmd.Execute()
}
