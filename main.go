/*
Copyright © 2025 tieubaoca
*/
package main

import (
	"github.com/joho/godotenv"
	"github.com/tieubaoca/docchat-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()
}
