// Command copilotd runs the driving-safety voice command gateway.
// Classifies driving conditions from vehicle telemetry and gates every
// spoken command against a safety policy before anything executes.
package main

import "github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/cli"

func main() {
	cli.Execute()
}
