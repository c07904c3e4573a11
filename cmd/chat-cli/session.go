package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rentacar-server/chat-api/pkg/chatclient"
)

const connectTimeout = 10 * time.Second

// startSocket runs the socket in the background and waits for the first
// connection. The returned channel yields Run's result.
func startSocket(ctx context.Context, p *Profile, handlers chatclient.Handlers, log zerolog.Logger) (*chatclient.Socket, <-chan error, error) {
	connected := make(chan struct{}, 1)
	onConnect := handlers.OnConnect
	handlers.OnConnect = func() {
		select {
		case connected <- struct{}{}:
		default:
		}
		if onConnect != nil {
			onConnect()
		}
	}

	socket := chatclient.NewSocket(p.Server, p.Token, handlers, log)
	done := make(chan error, 1)
	go func() { done <- socket.Run(ctx) }()

	select {
	case <-connected:
		return socket, done, nil
	case err := <-done:
		return nil, nil, fmt.Errorf("connect: %w", err)
	case <-time.After(connectTimeout):
		return nil, nil, errors.New("connect: timed out")
	}
}

func formatMessage(m chatclient.Message) string {
	return fmt.Sprintf("[%s] #%d %s: %s", m.CreatedAt.Local().Format("15:04:05"), m.ConversationID, m.SenderRole, m.Content)
}

func formatSummary(s chatclient.Summary) string {
	who := s.UserName
	if who == "" {
		who = s.UserID
	}
	last := "-"
	if s.LastMessage != nil {
		last = *s.LastMessage
		if len(last) > 40 {
			last = last[:37] + "..."
		}
	}
	return fmt.Sprintf("#%-5d %-6s %-20s %3d msgs  %s  %s", s.ID, s.Status, who, s.UserMessageCount, s.UpdatedAt.Local().Format("2006-01-02 15:04"), last)
}

// command is one line typed in an interactive session. Lines that do not
// start with a slash are messages.
type command struct {
	name string
	arg  string
}

func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{name: "say", arg: line}
	}
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}
}

func parseConversationID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid conversation id %q", raw)
	}
	return uint(id), nil
}

// readLines feeds stdin lines to handle until EOF, /quit, ctx or the socket ends.
func readLines(ctx context.Context, in io.Reader, socketDone <-chan error, handle func(command) error) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-socketDone:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd := parseCommand(line)
			if cmd.name == "quit" || cmd.name == "exit" {
				return nil
			}
			if cmd.name == "say" && cmd.arg == "" {
				continue
			}
			if err := handle(cmd); err != nil {
				fmt.Printf("! %v\n", err)
			}
		}
	}
}
