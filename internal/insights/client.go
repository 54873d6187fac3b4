package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lunalabs/luna/internal/dreams"
	"github.com/lunalabs/luna/pkg/client"
	"go.uber.org/zap"
)

// Report pairs an insight summary with the dreams it covers.
type Report struct {
	Summary *Summary
	Dreams  []dreams.Record
}

// Service loads insights, preferring the Luna API and falling back to local
// aggregation when the API is unreachable or has nothing for the user.
type Service struct {
	api    *client.Client
	logger *zap.Logger
}

// NewService creates an insights Service. api may be nil, in which case only
// local aggregation is used.
func NewService(api *client.Client, logger *zap.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// Load returns insights for the journal as of now. The remote result wins
// only when it exists and covers at least one dream; otherwise the journal
// is aggregated locally. An empty journal yields ErrNoData.
func (s *Service) Load(ctx context.Context, journal *dreams.Journal, now time.Time) (*Report, error) {
	if s.api != nil {
		report, err := s.fetchRemote(ctx)
		if err != nil {
			s.logger.Debug("remote insights unavailable, aggregating locally", zap.Error(err))
		} else if report.Summary != nil && report.Summary.TotalDreams > 0 {
			return report, nil
		}
	}

	records := journal.All()
	summary, err := Aggregate(records, now)
	if err != nil {
		return nil, err
	}
	return &Report{Summary: summary, Dreams: records}, nil
}

// fetchRemote pulls the server-computed summary. The endpoint's envelope
// carries the covered dreams in a sibling key beside the data payload.
func (s *Service) fetchRemote(ctx context.Context) (*Report, error) {
	body, err := s.api.Raw(ctx, "/api/v1/insights")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Data   *Summary        `json:"data"`
		Dreams []dreams.Record `json:"dreams"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode insights response: %w", err)
	}
	return &Report{Summary: payload.Data, Dreams: payload.Dreams}, nil
}
