// internal/workers/evaluation/persist-evaluation-record/store.go
package persistevaluationrecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	commonerrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/models"

	"github.com/lib/pq"
)

const insertEvaluationQuery = `
INSERT INTO evaluation_records (
	evaluation_id, application_id, visa_type, application_type,
	schema_version, overall_score, confidence, status,
	result, document_validation, evaluated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Store persists immutable evaluation snapshots. Records are append-only;
// a re-evaluation produces a new evaluation id, never an update.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InsertEvaluation(ctx context.Context, applicationID string, evaluation *models.EvaluationResult, validation *models.DocumentSetValidation) error {
	resultJSON, err := json.Marshal(evaluation)
	if err != nil {
		return fmt.Errorf("marshal evaluation: %w", err)
	}

	var validationJSON interface{}
	if validation != nil {
		raw, err := json.Marshal(validation)
		if err != nil {
			return fmt.Errorf("marshal document validation: %w", err)
		}
		validationJSON = raw
	}

	_, err = s.db.ExecContext(ctx, insertEvaluationQuery,
		evaluation.EvaluationID,
		applicationID,
		evaluation.VisaType,
		evaluation.ApplicationType,
		evaluation.SchemaVersion,
		evaluation.OverallScore,
		evaluation.Confidence,
		evaluation.Status,
		resultJSON,
		validationJSON,
		evaluation.EvaluatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return commonerrors.NewDuplicateEvaluationError(evaluation.EvaluationID)
		}
		return commonerrors.NewEvaluationPersistFailedError(err)
	}
	return nil
}
