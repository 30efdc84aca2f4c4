// Package interactive provides the interactive command-line interface
// for the glassbridge daemon.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/glassbridge/glassbridge-go/pkg/connection"
	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
	"github.com/glassbridge/glassbridge-go/pkg/message"
)

// Bridge is the part of the connection manager the console drives.
// Implemented by *connection.Manager.
type Bridge interface {
	Connect(ep endpoint.RemoteEndpoint) error
	Disconnect()
	Enqueue(text string)
	Current() connection.Event
	Status() connection.Status
	QueueLen() int
	Subscribe(fn connection.Observer) (unsubscribe func())
}

// BridgeConfig provides the configured target to the console without
// depending on the main package's config structure.
type BridgeConfig interface {
	// Target returns the endpoint connected by a bare "connect".
	Target() (endpoint.RemoteEndpoint, bool)
}

// Console handles interactive mode for glassbridge.
type Console struct {
	bridge      Bridge
	config      BridgeConfig
	rl          *readline.Instance
	out         io.Writer
	unsubscribe func()
}

// New creates a console on the terminal. Attach a bridge before Run.
func New(cfg BridgeConfig) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "glassbridge> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := newConsole(cfg, rl.Stdout())
	c.rl = rl
	return c, nil
}

// newConsole creates a console writing to out without a terminal.
func newConsole(cfg BridgeConfig, out io.Writer) *Console {
	return &Console{
		config: cfg,
		out:    out,
	}
}

// Attach connects the console to the bridge it drives and starts printing
// its state changes.
func (c *Console) Attach(bridge Bridge) {
	c.bridge = bridge
	c.unsubscribe = bridge.Subscribe(c.handleEvent)
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with the command line.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run starts the interactive command loop. cancel is called when the
// user quits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()
	defer c.unsubscribe()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.Execute(line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether the user asked to quit.
func (c *Console) Execute(line string) (quit bool) {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "connect", "c":
		c.cmdConnect(args)

	case "disconnect", "d":
		c.bridge.Disconnect()

	case "send", "s":
		c.cmdSend(rest)

	case "test", "t":
		c.enqueue(message.FormatTest(rest))

	case "notify", "n":
		c.cmdNotify(args, rest)

	case "call":
		c.cmdCall(rest)

	case "status", "st":
		c.cmdStatus()

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
glassbridge Commands:
  Link:
    connect [address] [name] - Connect to the configured (or given) endpoint
    disconnect               - Close the link
    status                   - Show link state and queue length

  Messages:
    send <text>              - Enqueue raw text
    test [text]              - Enqueue a TEST message
    notify <package> <title>[|<text>]
                             - Enqueue a formatted notification
    call <caller>            - Enqueue an incoming call

  Other:
    help                     - Show this help
    quit                     - Exit`)
}

func (c *Console) cmdConnect(args []string) {
	var ep endpoint.RemoteEndpoint
	switch len(args) {
	case 0:
		target, ok := c.config.Target()
		if !ok {
			fmt.Fprintln(c.out, "No endpoint configured. Usage: connect <address> [name]")
			return
		}
		ep = target
	default:
		ep = endpointFromArgs(args)
		if err := ep.Validate(); err != nil {
			fmt.Fprintf(c.out, "Invalid endpoint: %v\n", err)
			return
		}
	}

	if err := c.bridge.Connect(ep); err != nil {
		fmt.Fprintf(c.out, "Connect failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Connecting to %s...\n", ep.DisplayName())
}

// endpointFromArgs builds a bonded endpoint from "<address> [name]".
// Bluetooth addresses select rfcomm, anything else tcp.
func endpointFromArgs(args []string) endpoint.RemoteEndpoint {
	ep := endpoint.RemoteEndpoint{
		Address: args[0],
		Kind:    endpoint.KindTCP,
		Bond:    endpoint.BondBonded,
	}
	if _, err := endpoint.ParseBluetoothAddr(args[0]); err == nil {
		ep.Kind = endpoint.KindRFCOMM
	}
	if len(args) > 1 {
		ep.Name = strings.Join(args[1:], " ")
	}
	return ep
}

func (c *Console) cmdSend(text string) {
	if text == "" {
		fmt.Fprintln(c.out, "Usage: send <text>")
		return
	}
	c.enqueue(text)
}

func (c *Console) cmdNotify(args []string, rest string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: notify <package> <title>[|<text>]")
		return
	}

	n := message.Notification{Package: args[0]}
	body := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
	n.Title, n.Text, _ = strings.Cut(body, "|")
	n.Title = strings.TrimSpace(n.Title)
	n.Text = strings.TrimSpace(n.Text)

	text, ok := message.FormatNotification(n)
	if !ok {
		fmt.Fprintf(c.out, "Skipped system notification from %s\n", n.Package)
		return
	}
	c.enqueue(text)
}

func (c *Console) cmdCall(caller string) {
	c.enqueue(message.FormatCall(caller, ""))
}

func (c *Console) cmdStatus() {
	ev := c.bridge.Current()
	st := c.bridge.Status()

	fmt.Fprintf(c.out, "State:    %s\n", ev.State)
	if ev.Endpoint.Address != "" {
		fmt.Fprintf(c.out, "Endpoint: %s\n", ev.Endpoint)
	}
	if ev.LinkID != "" {
		fmt.Fprintf(c.out, "Link:     %s\n", ev.LinkID)
	}
	fmt.Fprintf(c.out, "Status:   %s - %s\n", st.Title, st.Detail)
	fmt.Fprintf(c.out, "Queued:   %d\n", c.bridge.QueueLen())
}

func (c *Console) enqueue(text string) {
	c.bridge.Enqueue(text)
	if c.bridge.Current().State != connection.StateConnected {
		fmt.Fprintf(c.out, "Queued %q (not connected, will be dropped)\n", text)
		return
	}
	fmt.Fprintf(c.out, "Queued %q\n", text)
}

func (c *Console) handleEvent(ev connection.Event) {
	fmt.Fprintf(c.out, "[EVENT] %s\n", ev)
}
