package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"rentacar-server/chat-api/pkg/chatclient"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Admin console commands",
	Long:  `List, read, close and answer customer conversations. Requires an admin token.`,
}

var consoleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recently active first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := adminClient(cmd)
		if err != nil {
			return err
		}
		list, err := client.ListConversations(cmd.Context())
		if err != nil {
			return err
		}
		printSummaries(list)
		return nil
	},
}

var consoleHistoryCmd = &cobra.Command{
	Use:   "history [conversation-id]",
	Short: "Print the full history of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseConversationID(args[0])
		if err != nil {
			return err
		}
		client, err := adminClient(cmd)
		if err != nil {
			return err
		}
		history, err := client.ConversationMessages(cmd.Context(), id)
		if err != nil {
			return err
		}
		for _, m := range history {
			fmt.Println(formatMessage(m))
		}
		return nil
	},
}

var consoleCloseCmd = &cobra.Command{
	Use:   "close [conversation-id]",
	Short: "Close a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseConversationID(args[0])
		if err != nil {
			return err
		}
		client, err := adminClient(cmd)
		if err != nil {
			return err
		}
		conv, err := client.CloseConversation(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("Conversation #%d is %s\n", conv.ID, conv.Status)
		return nil
	},
}

var consoleWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive console with live updates",
	Long: `Follow every conversation live and answer the selected one.
Commands: /list, /select <id>, /history, /close [id], /quit. Any other line is sent
to the selected conversation.`,
	RunE: runConsoleWatch,
}

func init() {
	consoleCmd.AddCommand(consoleListCmd)
	consoleCmd.AddCommand(consoleHistoryCmd)
	consoleCmd.AddCommand(consoleCloseCmd)
	consoleCmd.AddCommand(consoleWatchCmd)
}

func adminClient(cmd *cobra.Command) (*chatclient.Client, error) {
	p, _, err := resolveProfile(cmd)
	if err != nil {
		return nil, err
	}
	if err := requireToken(p); err != nil {
		return nil, err
	}
	return chatclient.NewClient(p.Server, p.Token), nil
}

func runConsoleWatch(cmd *cobra.Command, args []string) error {
	p, _, err := resolveProfile(cmd)
	if err != nil {
		return err
	}
	if err := requireToken(p); err != nil {
		return err
	}
	log := cliLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var console *chatclient.Console
	var connects atomic.Int32
	ready := make(chan struct{})
	socket, socketDone, err := startSocket(ctx, p, chatclient.Handlers{
		OnMessage: func(m chatclient.Message) {
			<-ready
			console.HandleMessage(m)
			fmt.Println(formatMessage(m))
			if console.Stale() {
				if err := console.Load(ctx); err != nil {
					log.Warn().Err(err).Msg("reload conversations")
				}
			}
		},
		OnAck: func(a chatclient.Ack) {
			if a.Status != "accepted" {
				fmt.Printf("! reply not delivered: %s\n", a.Status)
			}
		},
		OnConnect: func() {
			if connects.Add(1) == 1 {
				return
			}
			go func() {
				<-ready
				if err := console.Load(ctx); err != nil {
					log.Warn().Err(err).Msg("reload conversations after reconnect")
				}
				if selected, ok := console.Selected(); ok {
					if err := console.Select(ctx, selected.ID); err != nil {
						log.Warn().Err(err).Msg("reload history after reconnect")
					}
				}
			}()
		},
		OnDisconnect: func(err error) { log.Warn().Err(err).Msg("disconnected") },
	}, log)
	if err != nil {
		return err
	}

	console = chatclient.NewConsole(chatclient.NewClient(p.Server, p.Token), socket)
	close(ready)
	if err := console.Load(ctx); err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}
	printSummaries(console.Summaries())

	return readLines(ctx, os.Stdin, socketDone, func(c command) error {
		switch c.name {
		case "say":
			_, err := console.Send(c.arg)
			return err
		case "list":
			if err := console.Load(ctx); err != nil {
				return err
			}
			printSummaries(console.Summaries())
			return nil
		case "select":
			id, err := parseConversationID(c.arg)
			if err != nil {
				return err
			}
			if err := console.Select(ctx, id); err != nil {
				return err
			}
			printSelected(console)
			return nil
		case "history":
			printSelected(console)
			return nil
		case "close":
			id, err := closeTarget(console, c.arg)
			if err != nil {
				return err
			}
			if err := console.CloseConversation(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Conversation #%d closed\n", id)
			return nil
		default:
			return fmt.Errorf("unknown command /%s", c.name)
		}
	})
}

// closeTarget is the explicit id, or the selected conversation.
func closeTarget(console *chatclient.Console, arg string) (uint, error) {
	if arg != "" {
		return parseConversationID(arg)
	}
	selected, ok := console.Selected()
	if !ok {
		return 0, chatclient.ErrNoConversation
	}
	return selected.ID, nil
}

func printSummaries(list []chatclient.Summary) {
	if len(list) == 0 {
		fmt.Println("No conversations yet.")
		return
	}
	for _, s := range list {
		fmt.Println(formatSummary(s))
	}
}

func printSelected(console *chatclient.Console) {
	selected, ok := console.Selected()
	if !ok {
		fmt.Println("No conversation selected.")
		return
	}
	fmt.Printf("-- #%d %s (%s)\n", selected.ID, selected.UserName, selected.Status)
	for _, m := range console.Messages() {
		fmt.Println(formatMessage(m))
	}
}
