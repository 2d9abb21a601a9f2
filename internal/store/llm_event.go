package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type llmEventRow struct {
	ID           int64  `db:"id"`
	Sequence     int64  `db:"sequence"`
	CreatedAt    int64  `db:"created_at"`
	Provider     string `db:"provider"`
	Model        string `db:"model"`
	Purpose      string `db:"purpose"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	LatencyMs    int64  `db:"latency_ms"`
	Success      bool   `db:"success"`
	ErrorMessage string `db:"error_message"`
	RequestBody  string `db:"request_body"`
	ResponseBody string `db:"response_body"`
}

func (row llmEventRow) toEvent() LLMEvent {
	return LLMEvent{
		ID:        row.ID,
		Sequence:  row.Sequence,
		Timestamp: fromMillis(row.CreatedAt),
		LLMRequestEventData: LLMRequestEventData{
			Provider:     row.Provider,
			Model:        row.Model,
			Purpose:      row.Purpose,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
			LatencyMs:    row.LatencyMs,
			Success:      row.Success,
			ErrorMessage: row.ErrorMessage,
			RequestBody:  row.RequestBody,
			ResponseBody: row.ResponseBody,
		},
	}
}

const llmEventColumns = `id, sequence, created_at, provider, model, purpose, input_tokens,
	output_tokens, latency_ms, success, error_message, request_body, response_body`

// eventRepo implements EventRepo on the llm_events table.
type eventRepo struct {
	db  *sqlx.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	row := llmEventRow{
		Sequence:     seqNum,
		CreatedAt:    toMillis(time.Now()),
		Provider:     data.Provider,
		Model:        data.Model,
		Purpose:      data.Purpose,
		InputTokens:  data.InputTokens,
		OutputTokens: data.OutputTokens,
		LatencyMs:    data.LatencyMs,
		Success:      data.Success,
		ErrorMessage: data.ErrorMessage,
		RequestBody:  data.RequestBody,
		ResponseBody: data.ResponseBody,
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO llm_events (sequence, created_at, provider, model, purpose, input_tokens,
			output_tokens, latency_ms, success, error_message, request_body, response_body)
		VALUES (:sequence, :created_at, :provider, :model, :purpose, :input_tokens,
			:output_tokens, :latency_ms, :success, :error_message, :request_body, :response_body)`, row)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	q, args := applyQueryOpts(`SELECT `+llmEventColumns+` FROM llm_events WHERE 1 = 1`, nil, opts)

	var rows []llmEventRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}

	out := make([]LLMEvent, len(rows))
	for i, row := range rows {
		out[i] = row.toEvent()
	}
	return out, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	var row llmEventRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+llmEventColumns+` FROM llm_events WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	e := row.toEvent()
	return &e, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	var out []PurposeUsage
	err := r.db.SelectContext(ctx, &out, `
		SELECT purpose AS purpose,
			COUNT(*) AS calls,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens,
			CAST(COALESCE(AVG(latency_ms), 0) AS BIGINT) AS avg_latency_ms
		FROM llm_events GROUP BY purpose ORDER BY purpose`)
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by purpose: %w", err)
	}
	return out, nil
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	var out []ModelUsage
	err := r.db.SelectContext(ctx, &out, `
		SELECT model AS model,
			COUNT(*) AS calls,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens
		FROM llm_events GROUP BY model ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by model: %w", err)
	}
	return out, nil
}

func (r *eventRepo) PruneLLMEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM llm_events WHERE created_at < ?`), toMillis(before))
	if err != nil {
		return 0, fmt.Errorf("prune LLM events: %w", err)
	}
	return res.RowsAffected()
}
