package whatsapp

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	_ "github.com/mattn/go-sqlite3"
)

// Meow is the in-process transport backed by whatsmeow. The session
// lives in a local SQLite file so the pairing survives restarts.
type Meow struct {
	client *whatsmeow.Client
	logger *log.Logger
}

// NewMeow opens the session store at storePath and builds the client.
func NewMeow(ctx context.Context, storePath string, logger *log.Logger) (*Meow, error) {
	dbLog := waLog.Stdout("Database", "ERROR", true)
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", storePath), dbLog)
	if err != nil {
		return nil, fmt.Errorf("open whatsmeow store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load whatsmeow device: %w", err)
	}
	client := whatsmeow.NewClient(device, waLog.Stdout("Client", "ERROR", true))
	return &Meow{client: client, logger: logger}, nil
}

// Connect establishes the WhatsApp session. A device that was never
// paired prints a QR code to the terminal and blocks until the phone
// scans it or the pairing times out.
func (m *Meow) Connect(ctx context.Context) error {
	if m.client.Store.ID != nil {
		if err := m.client.Connect(); err != nil {
			return fmt.Errorf("whatsmeow connect: %w", err)
		}
		return nil
	}

	qrChan, err := m.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("whatsmeow qr channel: %w", err)
	}
	if err := m.client.Connect(); err != nil {
		return fmt.Errorf("whatsmeow connect: %w", err)
	}
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			m.logger.Printf("scan the QR code below to pair this device")
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
		case "success":
			m.logger.Printf("whatsapp pairing complete")
		default:
			m.logger.Printf("whatsapp pairing event: %s", evt.Event)
		}
	}
	return nil
}

// SendText delivers one message to a JID-style address.
func (m *Meow) SendText(ctx context.Context, address, text string) (bool, error) {
	jid, err := types.ParseJID(address)
	if err != nil {
		return false, fmt.Errorf("parse whatsapp address: %w", err)
	}
	if _, err := m.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)}); err != nil {
		return false, fmt.Errorf("send whatsapp message: %w", err)
	}
	return true, nil
}

// Status reports the live connection state.
func (m *Meow) Status(ctx context.Context) Status {
	return Status{
		Service:   "whatsmeow",
		Connected: m.client.IsConnected(),
		LoggedIn:  m.client.IsLoggedIn(),
	}
}

// Close disconnects the client.
func (m *Meow) Close() {
	m.client.Disconnect()
}
