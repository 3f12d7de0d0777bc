// ndt7-client is a command line client for the ndt7 protocol. It
// discovers a nearby M-Lab server (or uses an explicitly provided one),
// runs the download and upload subtests, and prints per-measurement
// progress plus a final summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"
	"github.com/m-lab/ndt7-client/emitter"
	"github.com/m-lab/ndt7-client/logging"
	"github.com/m-lab/ndt7-client/ndt7/client"
	"github.com/m-lab/ndt7-client/ndt7/model"
	"github.com/m-lab/ndt7-client/summary"
)

const (
	clientName    = "ndt7-client-go"
	clientVersion = "0.1.0"
)

var (
	flagServer = flag.String("server", "",
		"ndt7 server hostname (e.g. localhost:8080); bypasses the Locate API")
	flagServiceURL = flag.String("service-url", "",
		"complete service URL, including any access token; overrides -server")
	flagNoTLS = flag.Bool("no-tls", false,
		"use unencrypted WebSockets (ws://) when synthesizing URLs from -server")
	flagSkipTLSVerify = flag.Bool("skip-tls-verify", false,
		"skip TLS certificate verification (INSECURE)")
	flagFormat = flag.String("format", "human",
		"output format: 'human' or 'json'")
	flagNoDownload = flag.Bool("no-download", false, "skip the download subtest")
	flagNoUpload   = flag.Bool("no-upload", false, "skip the upload subtest")
	flagQuiet      = flag.Bool("quiet", false, "emit summary and errors only")
	flagVerbose    = flag.Bool("verbose", false, "emit debug logs on stderr")
)

// osExit is overridden by unit tests.
var osExit = os.Exit

func makeEmitter(format string, quiet bool, out io.Writer) (emitter.Emitter, error) {
	var e emitter.Emitter
	switch format {
	case "human":
		e = emitter.NewHumanReadable(out)
	case "json":
		e = emitter.NewJSON(out)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	if quiet {
		e = emitter.NewQuiet(e)
	}
	return e, nil
}

// resolveTarget turns the command line flags into a concrete target,
// honoring the precedence -service-url > -server > discovery.
func resolveTarget(ctx context.Context, c *client.Client) (*client.Target, error) {
	var (
		target *client.Target
		err    error
	)
	switch {
	case *flagServiceURL != "":
		target, err = c.ResolveServiceURL(*flagServiceURL)
	case *flagServer != "":
		target = c.ResolveHostname(*flagServer)
	default:
		target, err = c.DiscoverTarget(ctx)
	}
	if err != nil {
		return nil, err
	}
	if *flagNoDownload {
		target.DownloadURL = ""
	}
	if *flagNoUpload {
		target.UploadURL = ""
	}
	if target.DownloadURL == "" && target.UploadURL == "" {
		return nil, errors.New("nothing to do")
	}
	return target, nil
}

// runSubtest starts the given subtest and consumes its stream, keeping
// the last client- and server-origin measurements for the summary. The
// returned error is the subtest's terminal error, if any.
func runSubtest(
	ctx context.Context, e emitter.Emitter, kind model.SubtestKind, machine string,
	start func(context.Context, string) (<-chan client.Result, error), serviceURL string,
	onEvent func(*model.Measurement) error,
) (lastClient, lastServer *model.Measurement, err error) {
	if err := e.OnStarting(kind); err != nil {
		return nil, nil, err
	}
	stream, err := start(ctx, serviceURL)
	if err != nil {
		e.OnError(kind, err)
		return nil, nil, err
	}
	if err := e.OnConnected(kind, machine); err != nil {
		return nil, nil, err
	}
	var terminal error
	for result := range stream {
		if result.Err != nil {
			terminal = result.Err
			break
		}
		m := result.Measurement
		if err := onEvent(&m); err != nil {
			return nil, nil, err
		}
		switch m.Origin {
		case model.OriginClient:
			lastClient = &m
		case model.OriginServer:
			lastServer = &m
		}
	}
	if terminal != nil {
		e.OnError(kind, terminal)
		return lastClient, lastServer, terminal
	}
	return lastClient, lastServer, e.OnComplete(kind)
}

func main() {
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "cannot parse command line")
	if *flagVerbose {
		logging.SetVerbose()
	}
	e, err := makeEmitter(*flagFormat, *flagQuiet, os.Stdout)
	rtx.Must(err, "cannot create the emitter")

	c := client.NewClient(clientName, clientVersion)
	c.InsecureNoTLS = *flagNoTLS
	c.InsecureSkipTLSVerify = *flagSkipTLSVerify

	ctx := context.Background()
	target, err := resolveTarget(ctx, c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		osExit(1)
		return
	}

	var (
		downloadClient, downloadServer, uploadServer *model.Measurement
		failed                                       bool
	)
	if target.DownloadURL != "" {
		var err error
		downloadClient, downloadServer, err = runSubtest(
			ctx, e, model.SubtestDownload, target.Machine,
			c.StartDownload, target.DownloadURL, e.OnDownloadEvent)
		failed = failed || err != nil
	}
	if target.UploadURL != "" {
		var err error
		_, uploadServer, err = runSubtest(
			ctx, e, model.SubtestUpload, target.Machine,
			c.StartUpload, target.UploadURL, e.OnUploadEvent)
		failed = failed || err != nil
	}

	s := summary.New(target.Machine, downloadClient, downloadServer, uploadServer)
	rtx.Must(e.OnSummary(s), "cannot emit the summary")
	if failed {
		osExit(2)
	}
}
