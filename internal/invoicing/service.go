package invoicing

import "context"

// SequenceStore abstracts sequence persistence for the service.
type SequenceStore interface {
	CurrentSequence(ctx context.Context, year int) (int, error)
	CommitIncrement(ctx context.Context, year int) (int, error)
}

// Service exposes preview and commit operations over the sequence store.
type Service struct {
	repo SequenceStore
}

// NewService constructs Service.
func NewService(repo SequenceStore) *Service {
	return &Service{repo: repo}
}

// PeekNext previews the next invoice number without committing it. Calling it
// twice without an intervening commit returns the same number, so the counter
// stays untouched when a sale is abandoned.
func (s *Service) PeekNext(ctx context.Context, year int) (NextNumber, error) {
	sequence, err := s.repo.CurrentSequence(ctx, year)
	if err != nil {
		return NextNumber{}, err
	}
	next := sequence + 1
	return NextNumber{InvoiceNumber: FormatNumber(year, next), Sequence: next}, nil
}

// CommitIncrement burns the next sequence value for the year and returns it.
func (s *Service) CommitIncrement(ctx context.Context, year int) (int, error) {
	return s.repo.CommitIncrement(ctx, year)
}
