// Package main is the entry point for the hookflow rule compiler.
package main

func main() {
	Execute()
}
