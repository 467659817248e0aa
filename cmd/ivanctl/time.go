package main

import "time"

// unixNanoNow and unixNanoNowSeconds are the CLI's only wall-clock
// reads. The simulation core never calls time.Now itself; the host
// (here, ivanctl) stamps every backup/export/comparison with a
// timestamp it supplies from outside.
func unixNanoNow() int64 {
	return time.Now().UnixNano()
}

func unixNanoNowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
