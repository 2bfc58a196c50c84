package report

import "context"

// Repository persists assembled reports. Get returns ErrReportNotFound for
// unknown IDs; Save is idempotent per report ID.
type Repository interface {
	Save(ctx context.Context, r *DebateReport) error
	Get(ctx context.Context, id string) (*DebateReport, error)
	List(ctx context.Context, filter ListFilter) ([]Summary, error)
}

// ListFilter narrows a listing to reports that include Speaker, newest
// first. Limit <= 0 means DefaultListLimit.
type ListFilter struct {
	Speaker string
	Limit   int
	Offset  int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Normalize clamps Limit and Offset into their valid ranges.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
