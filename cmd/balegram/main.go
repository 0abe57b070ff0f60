// Copyright (c) 2024 RoseLoverX

// Command balegram runs a small demo bot on the Bale Bot API.
//
// The token and the rest of the config come from BALE_* environment
// variables (a .env file is loaded when present) or from a YAML file given
// with -config.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/amarnathcjd/balegram/bale"
)

const askingName = "asking-name"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.AutoLogStartMessage = true

	client, err := bale.NewClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating client: %v\n", err)
		os.Exit(1)
	}
	register(client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Bot stopped: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (bale.ClientConfig, error) {
	if path != "" {
		return bale.LoadConfigFile(path)
	}
	return bale.ConfigFromEnv()
}

func register(client *bale.Client) {
	client.OnCommand("start", func(ctx context.Context, m *bale.Message) error {
		_, err := m.Reply(ctx, "Hello! Try /echo, /name, /vote or /ping.")
		return err
	})

	client.AddCommandHandler("echo", func(ctx context.Context, m *bale.Message, args []string) error {
		if len(args) == 0 {
			_, err := m.Reply(ctx, "Usage: /echo <text>")
			return err
		}
		_, err := m.Respond(ctx, strings.Join(args, " "))
		return err
	}, false)

	client.OnCommand("ping", func(ctx context.Context, m *bale.Message) error {
		began := time.Now()
		r, err := m.Reply(ctx, "Pong!")
		if err != nil {
			return err
		}
		_, err = r.Edit(ctx, fmt.Sprintf("Pong! %s", time.Since(began).Round(time.Millisecond)))
		return err
	})

	// a conversation: the handler blocks until the user answers
	client.OnCommand("name", func(ctx context.Context, m *bale.Message) error {
		conv := client.NewConversation(m.Chat.ID, 30*time.Second)
		defer conv.Close()

		stopTyping := client.KeepChatAction(ctx, m.Chat.ID, bale.ActionTyping)
		resp, err := conv.Ask(ctx, "What should I call you?")
		stopTyping()
		if err != nil {
			_, _ = m.Respond(ctx, "Never mind.")
			return nil
		}
		_, err = conv.Reply(ctx, "Nice to meet you, "+resp.Text)
		return err
	}, bale.FilterPrivate)

	// the same flow with a state store instead of a blocking wait
	client.OnCommand("setname", func(ctx context.Context, m *bale.Message) error {
		client.SetState(m.SenderID(), askingName)
		_, err := m.Reply(ctx, "Send me your name.")
		return err
	})
	client.AddMessageHandler(func(ctx context.Context, m *bale.Message) error {
		client.DelState(m.SenderID())
		_, err := m.Reply(ctx, "Saved, "+m.Text)
		return err
	}, bale.FilterState(client, askingName))

	client.OnCommand("vote", func(ctx context.Context, m *bale.Message) error {
		_, err := m.Respond(ctx, "Do you like Go?", &bale.SendOptions{
			ReplyMarkup: &bale.InlineKeyboardMarkup{InlineKeyboard: [][]bale.InlineKeyboardButton{{
				{Text: "Yes", CallbackData: "vote:yes"},
				{Text: "No", CallbackData: "vote:no"},
			}}},
		})
		return err
	})
	client.AddCallbackHandler(func(ctx context.Context, q *bale.CallbackQuery) error {
		choice := strings.TrimPrefix(q.Data, "vote:")
		if err := q.Answer(ctx, "Thanks for voting "+choice); err != nil {
			return err
		}
		_, err := q.Edit(ctx, "You voted "+choice)
		return err
	}, bale.FilterCallbackData("vote:"))

	client.AddMemberJoinedHandler(func(ctx context.Context, m *bale.Message) error {
		for _, u := range m.NewChatMembers {
			if _, err := m.Respond(ctx, "Welcome, "+u.FirstName); err != nil {
				return err
			}
		}
		return nil
	}, bale.FilterGroup)

	client.AddPreCheckoutHandler(func(ctx context.Context, q *bale.PreCheckoutQuery) error {
		return q.Answer(ctx, true)
	})

	client.Every(time.Hour, func(ctx context.Context) error {
		client.Log.Info("%d handler(s) running, offset %d", client.ActiveHandlers(), client.Source().Offset())
		return nil
	})
	if _, err := client.Cron("0 0 * * *", func(ctx context.Context) error {
		client.Log.Info("%d user state(s) tracked", client.States().Len())
		return nil
	}); err != nil {
		client.Log.Error("scheduling daily report: %v", err)
	}
}
