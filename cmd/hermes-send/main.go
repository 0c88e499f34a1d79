// hermes-send delivers a message through the hermes messaging gateway
// configuration, or lists the known targets.
//
//	hermes-send telegram "build finished"
//	hermes-send discord:#bot-home deploy done
//	hermes-send -list
//	hermes-send            (interactive shell)
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/0xbyt4/hermes-agent/pkg/channels"
	"github.com/0xbyt4/hermes-agent/pkg/channels/directory"
	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/gateway"
	"github.com/0xbyt4/hermes-agent/pkg/logger"
	"github.com/0xbyt4/hermes-agent/pkg/tools"
)

func main() {
	list := flag.Bool("list", false, "list available targets and exit")
	logLevel := flag.String("log-level", "warn", "debug, info, warn or error")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-list] [target message...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	logger.SetLevel(*logLevel)

	os.Exit(run(*list, flag.Args()))
}

func run(list bool, args []string) int {
	tool, cleanup := buildTool()
	defer cleanup()

	switch {
	case list:
		return runOnce(tool, tools.ListRequest{})
	case len(args) == 0:
		if err := runShell(tool); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	default:
		return runOnce(tool, tools.SendRequest{Target: args[0], Message: strings.Join(args[1:], " ")})
	}
}

// buildTool wires the dispatcher the same way the gateway does, minus the
// daemon pieces. A missing directory only disables name lookups.
func buildTool() (*tools.SendMessageTool, func()) {
	loader := config.NewFileLoader("")
	gate := tools.NewAvailabilityGate(nil, gateway.NewPIDFile(gateway.DefaultPIDPath()))

	var (
		names   tools.ChannelNameResolver
		display tools.DirectoryFormatter
	)
	cleanup := func() {}

	path := config.NewGatewayConfig().DirectoryPath()
	if cfg, err := loader.LoadGatewayConfig(); err == nil {
		path = cfg.DirectoryPath()
	}
	if store, err := directory.Open(path); err != nil {
		logger.WarnCF("hermes-send", "Channel directory unavailable", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	} else {
		names, display = store, store
		cleanup = func() { store.Close() }
	}

	return tools.NewSendMessageTool(gate, loader, names, channels.NewManager(), display, nil), cleanup
}

// runOnce dispatches req and prints the result. Ctrl-C cancels the request.
func runOnce(tool *tools.SendMessageTool, req tools.Request) int {
	return runOnceTo(os.Stdout, tool, req)
}

func printResult(w io.Writer, result tools.Result) int {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintln(w, err)
		return 1
	}
	fmt.Fprintln(w, string(data))
	if _, failed := result["error"]; failed {
		return 1
	}
	return 0
}

const shellHelp = `commands:
  send <target> <message...>   send a message
  list                         list available targets
  help                         show this help
  quit                         leave the shell`

func runShell(tool *tools.SendMessageTool) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hermes> ",
		HistoryFile:     filepath.Join(config.HermesHome(), "send_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("hermes-send: readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(rl.Stdout(), shellHelp)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		cmd, err := parseLine(line)
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		switch cmd.kind {
		case cmdNone:
		case cmdQuit:
			return nil
		case cmdHelp:
			fmt.Fprintln(rl.Stdout(), shellHelp)
		case cmdDispatch:
			runOnceTo(rl.Stdout(), tool, cmd.req)
		}
	}
}

func runOnceTo(w io.Writer, tool *tools.SendMessageTool, req tools.Request) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return printResult(w, tool.Dispatch(ctx, req))
}

type commandKind int

const (
	cmdNone commandKind = iota
	cmdQuit
	cmdHelp
	cmdDispatch
)

type command struct {
	kind commandKind
	req  tools.Request
}

// parseLine turns one shell line into a command.
func parseLine(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{kind: cmdNone}, nil
	}

	switch fields[0] {
	case "quit", "exit":
		return command{kind: cmdQuit}, nil
	case "help", "?":
		return command{kind: cmdHelp}, nil
	case "list":
		return command{kind: cmdDispatch, req: tools.ListRequest{}}, nil
	case "send":
		if len(fields) < 2 {
			return command{}, errors.New("usage: send <target> <message...>")
		}
		return command{kind: cmdDispatch, req: tools.SendRequest{
			Target:  fields[1],
			Message: strings.Join(fields[2:], " "),
		}}, nil
	default:
		return command{}, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}
