package main

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/flyingrobots/ninelives"
	"github.com/flyingrobots/ninelives/transport/jsonl"
)

func TestNewRootCmdRegistersEverySubcommand(t *testing.T) {
	root := newRootCmd()

	want := []string{"health", "read-config", "write-config", "list-config", "reset-breaker"}
	got := map[string]bool{}
	for _, c := range root.Commands() {
		got[c.Name()] = true
	}

	for _, name := range want {
		if !got[name] {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestRootCmdEndpointFlagDefault(t *testing.T) {
	root := newRootCmd()

	flag := root.PersistentFlags().Lookup("endpoint")
	if flag == nil {
		t.Fatal("expected a persistent --endpoint flag")
	}
	if flag.DefValue != "/var/run/ninelives.sock" {
		t.Errorf("endpoint default = %q", flag.DefValue)
	}
}

func TestPrintResultAck(t *testing.T) {
	out := captureStdout(t, func() {
		if err := printResult(ninelives.Ack()); err != nil {
			t.Fatalf("printResult: %v", err)
		}
	})
	if out != "ok\n" {
		t.Errorf("output = %q", out)
	}
}

func TestPrintResultValue(t *testing.T) {
	out := captureStdout(t, func() {
		if err := printResult(ninelives.Value("42")); err != nil {
			t.Fatalf("printResult: %v", err)
		}
	})
	if out != "42\n" {
		t.Errorf("output = %q", out)
	}
}

func TestPrintResultList(t *testing.T) {
	out := captureStdout(t, func() {
		if err := printResult(ninelives.List([]string{"a", "b"})); err != nil {
			t.Fatalf("printResult: %v", err)
		}
	})
	if out != "a\nb\n" {
		t.Errorf("output = %q", out)
	}
}

func TestPrintResultErrorReturnsError(t *testing.T) {
	err := printResult(ninelives.CommandError(ninelives.ErrNotFound, "no such handler"))
	if err == nil {
		t.Fatal("expected an error for a ResultError")
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured stdout: %v", err)
	}

	return string(out)
}

// TestRunCommandDialsAndDispatches exercises dial/runCommand against a
// live JSONL server on a Unix socket, the same transport ninelivesctl
// talks to in production.
func TestRunCommandDialsAndDispatches(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "ninelives.sock")

	router := ninelives.NewRouter(nil, nil, ninelives.RealClock{}, nil)
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		server := jsonl.NewServer(router)
		_ = server.Serve(context.Background(), conn, conn)
	}()

	flagEndpoint = sockPath
	defer func() { flagEndpoint = "/var/run/ninelives.sock" }()

	out := captureStdout(t, func() {
		if err := runCommand("health", nil); err != nil {
			t.Fatalf("runCommand: %v", err)
		}
	})
	if out == "" {
		t.Error("expected health output")
	}
}

func TestDialFailsOnUnreachableEndpoint(t *testing.T) {
	flagEndpoint = filepath.Join(t.TempDir(), "does-not-exist.sock")
	defer func() { flagEndpoint = "/var/run/ninelives.sock" }()

	_, _, err := dial()
	if err == nil {
		t.Fatal("expected dial to fail against a nonexistent socket")
	}
}
