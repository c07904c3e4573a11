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

var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Chat as a customer",
	Long: `Open the caller's conversation, print its history and send each typed line.
Commands: /refresh reloads the history, /quit exits.`,
	RunE: runWidget,
}

func runWidget(cmd *cobra.Command, args []string) error {
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

	var widget *chatclient.Widget
	var connects atomic.Int32
	ready := make(chan struct{})
	socket, socketDone, err := startSocket(ctx, p, chatclient.Handlers{
		OnMessage: func(m chatclient.Message) {
			<-ready
			widget.HandleMessage(m)
			fmt.Println(formatMessage(m))
		},
		OnAck: func(a chatclient.Ack) {
			<-ready
			widget.HandleAck(a)
			if a.Status != "accepted" {
				fmt.Printf("! message not delivered: %s\n", a.Status)
			}
		},
		OnConnect: func() {
			if connects.Add(1) == 1 {
				return
			}
			// Messages sent while we were away only show up in the history.
			go func() {
				<-ready
				if err := widget.Refresh(ctx); err != nil {
					log.Warn().Err(err).Msg("refresh after reconnect")
				}
			}()
		},
		OnDisconnect: func(err error) { log.Warn().Err(err).Msg("disconnected") },
	}, log)
	if err != nil {
		return err
	}

	widget = chatclient.NewWidget(chatclient.NewClient(p.Server, p.Token), socket)
	close(ready)
	if err := widget.Open(ctx); err != nil {
		return fmt.Errorf("open conversation: %w", err)
	}
	printWidget(widget)

	return readLines(ctx, os.Stdin, socketDone, func(c command) error {
		switch c.name {
		case "say":
			_, err := widget.Send(c.arg)
			return err
		case "refresh":
			if err := widget.Refresh(ctx); err != nil {
				return err
			}
			printWidget(widget)
			return nil
		default:
			return fmt.Errorf("unknown command /%s", c.name)
		}
	})
}

func printWidget(w *chatclient.Widget) {
	conv := w.Conversation()
	if conv == nil {
		return
	}
	fmt.Printf("Conversation #%d (%s)\n", conv.ID, conv.Status)
	for _, m := range w.Messages() {
		fmt.Println(formatMessage(m))
	}
	if !w.CanSend() {
		fmt.Println("This conversation is closed. You can read it but not reply.")
	}
}
