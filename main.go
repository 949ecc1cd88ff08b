package main

import "github.com/leakguard/leakguard/cmd/leakguard"

func main() { leakguard.Execute() }
