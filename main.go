package main

import "talkpoint-backend/cmd"

func main() {
	cmd.Run()
}
