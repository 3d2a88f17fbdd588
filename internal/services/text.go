package services

import (
	"context"
	"fmt"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/utils"
)

type TextService interface {
	SendText(ctx context.Context, toNumber string, body string) error
}

type textService struct {
	log    *logger.Logger
	client *twilio.RestClient
	from   string
}

func NewTextService(log *logger.Logger) (TextService, error) {
	serviceLog := log.With("service", "TextService")
	accountSid := utils.GetEnv("TWILIO_ACCOUNT_SID", "", serviceLog)
	authToken := utils.GetEnv("TWILIO_AUTH_TOKEN", "", serviceLog)
	fromNumber := utils.GetEnv("TWILIO_FROM_NUMBER", "", serviceLog)
	if accountSid == "" || authToken == "" || fromNumber == "" {
		return nil, fmt.Errorf("missing Twilio env variables: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &textService{log: serviceLog, client: client, from: fromNumber}, nil
}

func (ts *textService) SendText(ctx context.Context, toNumber string, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(ts.from)
	params.SetBody(body)

	resp, err := ts.client.Api.CreateMessage(params)
	if err != nil {
		ts.log.Warn("Failed to send Text via Twilio", "error", err)
		return err
	}
	var sid, status string
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	if resp.Status != nil {
		status = *resp.Status
	}
	ts.log.Info("Successfully sent Text via Twilio", "toNumber", toNumber, "sid", sid, "status", status)
	return nil
}
