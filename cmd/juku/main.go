// Command juku is the school office's billing and reconciliation tool.
package main

func main() {
	Execute()
}
