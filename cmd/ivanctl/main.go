// Command ivanctl is the offline CLI over the replay telemetry,
// compare, and autotune pipeline: it never touches the live
// simulation core, only recorded demos and authored tuning files on
// disk.
package main

func main() {
	Execute()
}
