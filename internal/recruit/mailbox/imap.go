// Package mailbox imports resumes attached to messages of an IMAP inbox.
package mailbox

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"go.uber.org/zap"
)

type Config struct {
	Host        string
	User        string
	Password    string
	Mailbox     string
	MaxMessages uint32
}

// IMAP reads unseen messages over an implicit TLS connection.
type IMAP struct {
	cfg    Config
	logger *zap.Logger
	dial   func(addr string) (*client.Client, error)
}

func NewIMAP(cfg Config, logger *zap.Logger) *IMAP {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.MaxMessages == 0 {
		cfg.MaxMessages = 50
	}
	return &IMAP{
		cfg:    cfg,
		logger: logger.Named("imap"),
		dial: func(addr string) (*client.Client, error) {
			return client.DialTLS(addr, nil)
		},
	}
}

func (m *IMAP) connect() (*client.Client, error) {
	c, err := m.dial(m.cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("%w: imap dial %s: %v", e.ErrExternalService, m.cfg.Host, err)
	}
	if err := c.Login(m.cfg.User, m.cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("%w: imap login: %v", e.ErrExternalService, err)
	}
	if _, err := c.Select(m.cfg.Mailbox, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("%w: imap select %s: %v", e.ErrExternalService, m.cfg.Mailbox, err)
	}
	return c, nil
}

// Unseen fetches at most MaxMessages unseen messages without marking them
// as seen. Messages that cannot be parsed are logged and skipped.
func (m *IMAP) Unseen(ctx context.Context) ([]*Message, error) {
	c, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Logout() }()

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: imap search: %v", e.ErrExternalService, err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if uint32(len(uids)) > m.cfg.MaxMessages {
		uids = uids[:m.cfg.MaxMessages]
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{Peek: true}

	raw := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, []imap.FetchItem{imap.FetchUid, section.FetchItem()}, raw)
	}()

	var messages []*Message
	for msg := range raw {
		body := msg.GetBody(section)
		if body == nil {
			m.logger.Warn("Server returned no body", zap.Uint32("uid", msg.Uid))
			continue
		}
		parsed, err := Parse(body)
		if err != nil {
			m.logger.Warn("Failed to parse message", zap.Uint32("uid", msg.Uid), zap.Error(err))
			continue
		}
		parsed.UID = msg.Uid
		messages = append(messages, parsed)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("%w: imap fetch: %v", e.ErrExternalService, err)
	}
	return messages, nil
}

// MarkSeen flags the given messages as seen.
func (m *IMAP) MarkSeen(_ context.Context, uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}
	c, err := m.connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Logout() }()

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	flags := []interface{}{imap.SeenFlag}
	if err := c.UidStore(seqset, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
		return fmt.Errorf("%w: imap store: %v", e.ErrExternalService, err)
	}
	return nil
}
