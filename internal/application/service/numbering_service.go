package service

import (
	"context"

	"github.com/lop-gin/factory-finance-pal/internal/domain/document"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	"github.com/lop-gin/factory-finance-pal/pkg/utils"
)

const defaultNumberWidth = 6

// NumberingService mints human readable document numbers such as INV-000042
type NumberingService struct {
	seq   repository.SequenceRepository
	width int
}

// NewNumberingService creates a numbering service over a sequence backend
func NewNumberingService(seq repository.SequenceRepository, width int) *NumberingService {
	if width < 1 {
		width = defaultNumberWidth
	}
	return &NumberingService{seq: seq, width: width}
}

// Next returns the next number for the document type
func (s *NumberingService) Next(ctx context.Context, t enum.DocumentType) (string, error) {
	info, err := document.LookupKind(t)
	if err != nil {
		return "", err
	}
	n, err := s.seq.Next(ctx, t)
	if err != nil {
		return "", err
	}
	return utils.FormatReference(info.Prefix, n, s.width), nil
}
