package main

import "github.com/video-stream/transcriber/cmd"

func main() {
	cmd.Execute()
}
