// Command debatestats analyzes debate transcripts from the command line.
//
// Usage:
//
//	debatestats analyze debate.txt --speakers TRUMP,BIDEN
//	debatestats compare first.txt second.txt --speaker TRUMP
//	debatestats history --speaker TRUMP
package main

import "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/cli"

func main() {
	cli.Main()
}
