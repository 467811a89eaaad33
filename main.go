package main

import "github.com/keyreaper/keyreaper/cmd/keyreaper"

func main() { keyreaper.Execute() }
