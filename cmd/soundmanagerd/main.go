// Command soundmanagerd hosts the catalog core as a standalone process:
// open/create a catalog, run a one-shot scan, manage tags from the
// shell, or serve the watcher loop (SPEC_FULL.md §5.7).
package main

func main() {
	execute()
}
