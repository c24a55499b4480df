// Command irrigation-controller runs the controller node's event-driven
// module federation: schedule selector, relay/program executor, time
// manager, WiFi supervisor and WebSocket transport, wired together by the
// Supervisor over a shared event bus.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "irrigation-controller",
		Short: "Distributed irrigation controller node",
		Long: `irrigation-controller runs one controller node: it sequences relay-actuated
irrigation zones on a weekly schedule, persists that schedule across power
cycles, and stays in sync with a central coordinator over WebSocket while
tolerating intermittent WiFi and clock drift.`,
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(newScheduleCommand())
	return root
}
