package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"photolab_miniapp/pkg/logger"

	"github.com/goccy/go-json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// StarsService drives Telegram Stars payments: it creates XTR invoice links
// and consumes bot updates for pre-checkout queries and successful payments.
// The invoice payload carries the payment's order id.
type StarsService struct {
	bot      *tgbotapi.BotAPI
	botToken string
}

func NewStarsService(botToken string, debug bool) (*StarsService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	bot.Debug = debug

	return &StarsService{
		bot:      bot,
		botToken: botToken,
	}, nil
}

func (s *StarsService) Bot() *tgbotapi.BotAPI {
	return s.bot
}

type labeledPrice struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

type createInvoiceLinkRequest struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Payload       string         `json:"payload"`
	ProviderToken string         `json:"provider_token"`
	Currency      string         `json:"currency"`
	Prices        []labeledPrice `json:"prices"`
}

// CreateInvoiceLink calls the Bot API directly; the bot library has no
// binding for XTR invoice links.
func (s *StarsService) CreateInvoiceLink(ctx context.Context, title, description, payload string, amount int64) (string, error) {
	request := createInvoiceLinkRequest{
		Title:       title,
		Description: description,
		Payload:     payload,
		Currency:    "XTR",
		Prices: []labeledPrice{
			{Label: title, Amount: amount},
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/createInvoiceLink", s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	var result struct {
		Ok          bool   `json:"ok"`
		Result      string `json:"result"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	if !result.Ok {
		return "", fmt.Errorf("telegram API error: %s", result.Description)
	}

	return result.Result, nil
}

func (s *StarsService) handlePreCheckoutQuery(query *tgbotapi.PreCheckoutQuery) error {
	answer := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: query.ID,
		OK:                 true,
	}

	_, err := s.bot.Request(answer)
	return err
}

// StartUpdateListener consumes bot updates until ctx is cancelled. A
// successful Stars payment confirms the order named in the invoice payload.
func (s *StarsService) StartUpdateListener(ctx context.Context, payments PaymentServiceI) {
	log := logger.Logger()

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := s.bot.GetUpdatesChan(updateConfig)

	for {
		select {
		case update := <-updates:
			switch {
			case update.PreCheckoutQuery != nil:
				if err := s.handlePreCheckoutQuery(update.PreCheckoutQuery); err != nil {
					log.Error("failed to answer pre-checkout query", zap.Error(err))
				}

			case update.Message != nil && update.Message.SuccessfulPayment != nil:
				payment := update.Message.SuccessfulPayment
				err := payments.ConfirmByOrderID(ctx, payment.InvoicePayload, payment.TelegramPaymentChargeID)
				if err != nil {
					log.Error("failed to confirm stars payment",
						zap.String("payload", payment.InvoicePayload),
						zap.Error(err))
				}
			}

		case <-ctx.Done():
			s.bot.StopReceivingUpdates()
			return
		}
	}
}

// NotifyUser sends a plain message through the bot, used for ticket replies.
func (s *StarsService) NotifyUser(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)
	return err
}
