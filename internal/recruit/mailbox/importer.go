package mailbox

import (
	"context"

	"github.com/gartstein/recruit/internal/recruit/ingestion"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Source interface {
	Unseen(ctx context.Context) ([]*Message, error)
	MarkSeen(ctx context.Context, uids []uint32) error
}

type Ingester interface {
	Process(ctx context.Context, orgID uuid.UUID, files []ingestion.File) *ingestion.Result
}

// Importer feeds the attachments of unseen messages to the ingestion
// pipeline. A message is marked seen once all of its attachments were
// ingested, or when it has none; messages with a failed file stay unseen
// and are retried by the next run.
type Importer struct {
	source   Source
	ingester Ingester
	logger   *zap.Logger
}

func NewImporter(source Source, ingester Ingester, logger *zap.Logger) *Importer {
	return &Importer{source: source, ingester: ingester, logger: logger.Named("mailbox")}
}

type Summary struct {
	Messages int
	Uploaded []ingestion.UploadedFile
	Failed   []ingestion.FailedFile
}

func (i *Importer) Run(ctx context.Context, orgID uuid.UUID) (*Summary, error) {
	messages, err := i.source.Unseen(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Messages: len(messages)}
	var seen []uint32
	for _, msg := range messages {
		if len(msg.Attachments) == 0 {
			seen = append(seen, msg.UID)
			continue
		}

		res := i.ingester.Process(ctx, orgID, msg.Attachments)
		summary.Uploaded = append(summary.Uploaded, res.Uploaded...)
		summary.Failed = append(summary.Failed, res.Failed...)
		if len(res.Failed) == 0 {
			seen = append(seen, msg.UID)
		} else {
			i.logger.Warn("Message left unseen",
				zap.Uint32("uid", msg.UID),
				zap.String("from", msg.From),
				zap.Int("failed", len(res.Failed)),
			)
		}
	}

	if err := i.source.MarkSeen(context.WithoutCancel(ctx), seen); err != nil {
		return summary, err
	}
	i.logger.Info("Mailbox import finished",
		zap.Int("messages", summary.Messages),
		zap.Int("uploaded", len(summary.Uploaded)),
		zap.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}
