// Command ninelivesctl is an operator CLI for a running ninelives
// control plane, issuing read_config/write_config/list_config/
// reset_circuit_breaker/health commands over the JSONL transport
// (typically a Unix socket), grounded on the retrieval pack's cobra
// root-command/subcommand wiring (Freitascorp-devopsclaw's
// cmd/devopsclaw/cobra_cli.go: PersistentFlags on root, one
// New*Cmd()-returning *cobra.Command function per subcommand, RunE
// doing the actual work).
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flyingrobots/ninelives"
	"github.com/flyingrobots/ninelives/transport/jsonl"
)

var flagEndpoint string

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ninelivesctl",
		Short:         "Operator CLI for a ninelives control plane",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "/var/run/ninelives.sock", "Unix socket serving the JSONL command transport")

	root.AddCommand(
		newHealthCmd(),
		newReadConfigCmd(),
		newWriteConfigCmd(),
		newListConfigCmd(),
		newResetBreakerCmd(),
	)

	return root
}

func dial() (*jsonl.Client, net.Conn, error) {
	conn, err := net.Dial("unix", flagEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", flagEndpoint, err)
	}

	return jsonl.NewClient(conn, conn), conn, nil
}

func runCommand(cmd string, args map[string]string) error {
	client, conn, err := dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	env := ninelives.CommandEnvelope{
		ID:      uuid.NewString(),
		Command: cmd,
		Args:    args,
		Metadata: ninelives.CommandMetadata{
			CorrelationID: uuid.NewString(),
			Timestamp:     time.Now(),
		},
	}

	result, err := client.Dispatch(context.Background(), env)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", cmd, err)
	}

	return printResult(result)
}

func printResult(result ninelives.Result) error {
	switch result.Kind {
	case ninelives.ResultAck, ninelives.ResultReset:
		fmt.Println("ok")
	case ninelives.ResultValue:
		fmt.Println(result.Value)
	case ninelives.ResultList:
		for _, item := range result.Items {
			fmt.Println(item)
		}
	case ninelives.ResultError:
		if result.Error != nil {
			return fmt.Errorf("%s: %s", result.Error.Kind, result.Error.Message)
		}
		return fmt.Errorf("command failed")
	}

	return nil
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the control plane's liveness",
		RunE: func(*cobra.Command, []string) error {
			return runCommand("health", nil)
		},
	}
}

func newReadConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-config [path]",
		Short: "Read one configuration value by dotted path",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCommand("read_config", map[string]string{"path": args[0]})
		},
	}
}

func newWriteConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write-config [path] [json-value]",
		Short: "Write one configuration value by dotted path",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCommand("write_config", map[string]string{"path": args[0], "value": args[1]})
		},
	}
}

func newListConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-config",
		Short: "List every registered configuration path",
		RunE: func(*cobra.Command, []string) error {
			return runCommand("list_config", nil)
		},
	}
}

func newResetBreakerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-breaker [id]",
		Short: "Force a circuit breaker back to Closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCommand("reset_circuit_breaker", map[string]string{"id": args[0]})
		},
	}
}
