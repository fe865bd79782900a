package manager

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telematic/internal/database"
)

// TelegramRunner connects a bot to the Telegram Bot API and keeps its
// update stream open until cancelled. Message handling itself lives with
// the bot logic, not the console.
type TelegramRunner struct{}

func (TelegramRunner) Run(ctx context.Context, bot database.Bot, ready func()) error {
	api, err := tgbotapi.NewBotAPI(bot.Token)
	if err != nil {
		return fmt.Errorf("failed to authorize bot %s: %w", bot.ID, err)
	}
	log.Printf("Bot %s authorized as @%s", bot.ID, api.Self.UserName)
	ready()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
			// Updates are consumed so the long poll stays healthy;
			// delivery is handled downstream.
		}
	}
}
