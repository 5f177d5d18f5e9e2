package googleads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/adpilot-backend/internal/platform/logger"
)

// SearchClient is the transport boundary to the reporting API. Real
// implementations live with the ingestion collaborator; this package only
// cares that capability errors name the rejected fields.
type SearchClient interface {
	Search(ctx context.Context, customerID string, gaql string) ([]Row, error)
}

// InvalidFieldError reports fields the reporting API rejected for the
// caller's access tier. SearchClient implementations return it when the
// response identifies specific unsupported fields.
type InvalidFieldError struct {
	Fields []string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid or unsupported fields: %s", strings.Join(e.Fields, ", "))
}

// DegradationExhaustedError means the field-narrowing retry ceiling was hit
// without a successful response. It carries the last-attempted field list so
// the caller can retry with narrower intent.
type DegradationExhaustedError struct {
	Fields []string
	Err    error
}

func (e *DegradationExhaustedError) Error() string {
	return fmt.Sprintf("query degradation exhausted after retries (last fields: %s): %v",
		strings.Join(e.Fields, ", "), e.Err)
}

func (e *DegradationExhaustedError) Unwrap() error { return e.Err }

// Result carries the rows plus the field set that actually succeeded, so
// callers can distinguish "not collected" from zero.
type Result struct {
	Rows   []Row
	Fields []string
}

type Executor struct {
	client     SearchClient
	log        *logger.Logger
	maxRetries int
}

func NewExecutor(client SearchClient, log *logger.Logger, maxRetries int) *Executor {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Executor{
		client:     client,
		log:        log.With("service", "GAQLExecutor"),
		maxRetries: maxRetries,
	}
}

// Search executes q, narrowing the field list on capability errors. Each
// retry removes exactly the fields the error named; the exclusion set
// accumulates across attempts. Anything other than an InvalidFieldError
// propagates unchanged.
func (e *Executor) Search(ctx context.Context, customerID string, q Query) (Result, error) {
	excluded := map[string]bool{}
	current := q

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if len(current.Fields) == 0 {
			return Result{}, &DegradationExhaustedError{
				Fields: nil,
				Err:    errors.New("no queryable fields remain"),
			}
		}

		rows, err := e.client.Search(ctx, customerID, current.GAQL())
		if err == nil {
			e.log.Info("GAQL query succeeded",
				"customer_id", customerID,
				"attempt", attempt+1,
				"fields", len(current.Fields),
				"rows", len(rows),
			)
			return Result{Rows: rows, Fields: current.Fields}, nil
		}

		var fieldErr *InvalidFieldError
		if !errors.As(err, &fieldErr) {
			return Result{}, err
		}
		if attempt == e.maxRetries {
			return Result{}, &DegradationExhaustedError{Fields: current.Fields, Err: err}
		}

		removed := 0
		for _, f := range fieldErr.Fields {
			if current.HasField(f) && !excluded[f] {
				excluded[f] = true
				removed++
			}
		}
		if removed == 0 {
			// The error names no field we still carry; narrowing further
			// cannot help.
			return Result{}, &DegradationExhaustedError{Fields: current.Fields, Err: err}
		}

		e.log.Warn("GAQL query degraded, removing rejected fields",
			"customer_id", customerID,
			"attempt", attempt+1,
			"removed", removed,
			"rejected_fields", strings.Join(fieldErr.Fields, ", "),
		)
		current = q.WithoutFields(excluded)
	}

	return Result{}, &DegradationExhaustedError{Fields: current.Fields, Err: errors.New("retry ceiling reached")}
}
