package main

import "codepad/internal/server"

func main() {
	server.StartGinServer()
}
