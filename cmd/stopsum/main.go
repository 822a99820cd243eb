// Command stopsum computes stopping-sum overshoot distributions and exports
// Graph API page feeds.
package main

func main() {
	Execute()
}
