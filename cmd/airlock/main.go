// Command airlock is the operator tool for a delayed-execution
// authorization queue: it computes commitment digests client-side (the
// same digests the queue stores and checks) and inspects a persisted
// queue database.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/airlock-labs/airlock/pkg/commitment"
	"github.com/airlock-labs/airlock/pkg/contracts"
	"github.com/airlock-labs/airlock/pkg/store"
)

const version = "1.0.0"

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint, split out for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "hash":
		return runHash(args[2:], stdout, stderr)
	case "inspect":
		return runInspect(args[2:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "airlock %s\n", version)
		return 0
	default:
		fmt.Fprintf(stderr, "airlock: unknown command %q\n", args[1])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: airlock <command> [flags]

commands:
  hash     compute the commitment digest for an action
  inspect  print the persisted queue state from a database
  version  print the tool version
`)
}

func runHash(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	to := fs.String("to", "", "destination identity (hex)")
	value := fs.Uint64("value", 0, "value carried by the action")
	payload := fs.String("payload", "", "call payload (hex, optional)")
	callType := fs.String("call-type", "call", "call or delegatecall")
	secret := fs.Bool("secret", false, "compute the salted commit-reveal digest")
	salt := fs.Uint64("salt", 0, "salt for -secret (the queue's current salt counter)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	dest, err := contracts.ParseAddress(*to)
	if err != nil {
		fmt.Fprintf(stderr, "airlock hash: %v\n", err)
		return 1
	}

	var data []byte
	if *payload != "" {
		data, err = hex.DecodeString(strings.TrimPrefix(*payload, "0x"))
		if err != nil {
			fmt.Fprintf(stderr, "airlock hash: payload: %v\n", err)
			return 1
		}
	}

	var ct contracts.CallType
	switch *callType {
	case "call":
		ct = contracts.CallTypeCall
	case "delegatecall":
		ct = contracts.CallTypeDelegate
	default:
		fmt.Fprintf(stderr, "airlock hash: unknown call type %q\n", *callType)
		return 1
	}

	action := contracts.Action{To: dest, Value: *value, Payload: data, CallType: ct}

	var digest contracts.Digest
	if *secret {
		digest, err = commitment.SecretHash(action, *salt)
	} else {
		digest, err = commitment.Hash(action)
	}
	if err != nil {
		fmt.Fprintf(stderr, "airlock hash: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, digest.Hex())
	return 0
}

func runInspect(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "", "path to the queue database")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *dbPath == "" {
		fmt.Fprintln(stderr, "airlock inspect: -db is required")
		return 2
	}

	s, err := store.OpenSQLite(*dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "airlock inspect: %v\n", err)
		return 1
	}
	defer func() { _ = s.Close() }()

	snap, err := s.Load(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "airlock inspect: %v\n", err)
		return 1
	}

	out := struct {
		State     store.State         `json:"state"`
		Pending   uint64              `json:"pending"`
		Entries   []store.Entry       `json:"entries"`
		Proposers []contracts.Address `json:"proposers"`
	}{
		State:     snap.State,
		Pending:   snap.State.Tail - snap.State.Cursor,
		Entries:   snap.Entries,
		Proposers: snap.Proposers,
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "airlock inspect: %v\n", err)
		return 1
	}
	return 0
}
