// tidecli is a small command-line client for Tide Cloud storage accounts:
// upload, download, and list operations on shares.
package main

func main() {
	Execute()
}
