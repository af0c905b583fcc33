package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lueurxax/page-engage-bot/internal/intent"
	"github.com/lueurxax/page-engage-bot/internal/messenger"
	"github.com/lueurxax/page-engage-bot/internal/webhook"
)

// offlineGateway keeps chat-mode sessions local: no conversation resolution
// and no outbound network calls, replies are captured for the terminal.
type offlineGateway struct {
	lastReply string
}

func (g *offlineGateway) FindConversation(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func (g *offlineGateway) FetchHistory(_ context.Context, _ string, _ int) ([]messenger.Message, error) {
	return nil, nil
}

func (g *offlineGateway) SendText(_ context.Context, _, text string) (string, error) {
	g.lastReply = text

	return "offline-message-id", nil
}

const (
	chatTestPageID = "TEST_PAGE"
	chatTestPSID   = "TEST_PSID"
)

// RunChat runs an interactive terminal conversation through the real chat
// pipeline and the real store, with network calls stubbed out. Useful for
// prompt QA: phone capture, greeting behavior, and history persistence all
// work exactly as in production.
func (a *App) RunChat(ctx context.Context) error {
	classifier := intent.New(a.cfg, a.logger)
	gateway := &offlineGateway{}
	pipeline := webhook.NewChatPipeline(a.database, gateway, classifier, chatTestPageID, a.cfg.ChatHistoryLimit, a.logger)

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("Enter the user's name (for first-name personalization): ")

	userName := "Friend"
	if scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			userName = name
		}
	}

	if _, err := a.database.UpsertChat(ctx, chatTestPageID, chatTestPSID, userName, "", ""); err != nil {
		return fmt.Errorf("seed chat record: %w", err)
	}

	fmt.Println("\nType messages to chat with Lisa. Type 'exit' to quit.")

	for {
		fmt.Print("You: ")

		if !scanner.Scan() {
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if text == "exit" || text == "quit" {
			fmt.Println("Goodbye!")

			return nil
		}

		if err := pipeline.Process(ctx, chatTestPSID, text); err != nil {
			a.logger.Error().Err(err).Msg("chat processing failed")

			continue
		}

		fmt.Printf("Lisa: %s\n", gateway.lastReply)

		if chat, err := a.database.GetChatByPSID(ctx, chatTestPSID); err == nil && chat != nil && chat.PhoneNumber != "" {
			fmt.Printf("[Stored phone number: %s]\n", chat.PhoneNumber)
		}
	}
}
