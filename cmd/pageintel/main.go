// ABOUTME: Main entry point for the pageintel CLI
// ABOUTME: Delegates to the cobra command tree

package main

func main() {
	Execute()
}
