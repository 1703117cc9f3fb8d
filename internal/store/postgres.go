package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/store/searchquery"
)

// Postgres implements Store over a jmoiron/sqlx connection, grounded
// directly on the teacher's PostgresRepository shape (postgres.go):
// sqlx.Connect, a bounded pool, ExecContext/GetContext/SelectContext with
// positional placeholders.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres opens a pooled Postgres connection. Returns
// errors.CodePostgresNotConfigured when dsn is empty.
func NewPostgres(dsn string) (*Postgres, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, tarkaerrors.New(tarkaerrors.CodePostgresNotConfigured)
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// --- Cases ---------------------------------------------------------------

func (p *Postgres) ListCases(ctx context.Context, f CaseFilter) ([]*models.Case, int, CaseCounts, error) {
	var all []*models.Case
	if err := p.db.SelectContext(ctx, &all, `SELECT * FROM cases ORDER BY updated_at DESC`); err != nil {
		return nil, 0, CaseCounts{}, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}

	var counts CaseCounts
	var matched []*models.Case
	for _, c := range all {
		if c.Status == models.CaseOpen {
			counts.Open++
		} else {
			counts.Closed++
		}
		counts.Total++
		if !caseMatchesFilter(c, f) {
			continue
		}
		matched = append(matched, c)
	}

	total := len(matched)
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, counts, nil
}

func caseMatchesFilter(c *models.Case, f CaseFilter) bool {
	if f.Status != "" && string(c.Status) != f.Status {
		return false
	}
	if f.Service != "" && (c.Service == nil || !strings.EqualFold(*c.Service, f.Service)) {
		return false
	}
	if f.Family != "" && (c.Family == nil || !strings.EqualFold(*c.Family, f.Family)) {
		return false
	}
	if f.Team != "" && (c.Team == nil || !strings.EqualFold(*c.Team, f.Team)) {
		return false
	}
	fields := map[searchquery.Key]string{
		searchquery.KeyNamespace: deref(c.Namespace),
		searchquery.KeyWorkload:  deref(c.WorkloadName),
		searchquery.KeyService:   deref(c.Service),
		searchquery.KeyCluster:   deref(c.Cluster),
		searchquery.KeyAlertname: deref(c.Family),
	}
	haystack := deref(c.Family) + " " + deref(c.LatestOneLiner) + " " + deref(c.PrimaryDriver)
	return searchquery.Matches(f.Query, fields, haystack)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (p *Postgres) Facets(ctx context.Context, f CaseFilter) ([]string, error) {
	var teams []string
	err := p.db.SelectContext(ctx, &teams, `SELECT DISTINCT team FROM cases WHERE team IS NOT NULL ORDER BY team`)
	if err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	return teams, nil
}

func (p *Postgres) GetCase(ctx context.Context, caseID string) (*models.Case, error) {
	var c models.Case
	err := p.db.GetContext(ctx, &c, `SELECT * FROM cases WHERE case_id = $1`, caseID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	return &c, nil
}

func (p *Postgres) GetOpenCaseByKey(ctx context.Context, caseKey string) (*models.Case, error) {
	var c models.Case
	err := p.db.GetContext(ctx, &c, `SELECT * FROM cases WHERE case_key = $1 AND status = 'open'`, caseKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	return &c, nil
}

func (p *Postgres) CreateCase(ctx context.Context, c *models.Case) error {
	if c.CaseID == "" {
		c.CaseID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO cases (case_id, case_key, status, created_at, updated_at, cluster, target_type,
			namespace, workload_kind, workload_name, service, instance, family, team)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		c.CaseID, c.CaseKey, c.Status, c.CreatedAt, c.UpdatedAt, c.Cluster, c.TargetType,
		c.Namespace, c.WorkloadKind, c.WorkloadName, c.Service, c.Instance, c.Family, c.Team)
	return tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

// UpdateCaseFromRun applies spec.md §4.4's "Case-level updates": always
// bump updated_at, and COALESCE the denormalized pointer fields so the case
// row tracks the latest run's artifacts while never clobbering a
// first-seen identity field with NULL.
func (p *Postgres) UpdateCaseFromRun(ctx context.Context, caseID string, run *models.Run, oneLiner, primaryDriver, family string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE cases SET
			updated_at = now(),
			family = COALESCE(family, $2),
			primary_driver = COALESCE($3, primary_driver),
			latest_one_liner = COALESCE($4, latest_one_liner),
			s3_report_key = COALESCE($5, s3_report_key),
			s3_investigation_key = COALESCE($6, s3_investigation_key)
		WHERE case_id = $1`,
		caseID, family, nullIfEmpty(primaryDriver), nullIfEmpty(oneLiner),
		nullIfEmpty(run.S3ReportKey), nullIfEmpty(run.S3InvestigationKey))
	return tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (p *Postgres) ResolveCase(ctx context.Context, caseID, category, summary string, postmortemLink *string) error {
	if category == "" {
		return tarkaerrors.New(tarkaerrors.CodeResolutionCategoryRequired)
	}
	if summary == "" {
		return tarkaerrors.New(tarkaerrors.CodeResolutionSummaryRequired)
	}
	_, err := p.db.ExecContext(ctx, `
		UPDATE cases SET status = 'closed', resolved_at = now(), updated_at = now(),
			resolution_category = $2, resolution_summary = $3, postmortem_link = $4
		WHERE case_id = $1`, caseID, category, summary, postmortemLink)
	return tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

func (p *Postgres) ReopenCase(ctx context.Context, caseID string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE cases SET status = 'open', resolved_at = NULL, updated_at = now(),
			resolution_category = NULL, resolution_summary = NULL, postmortem_link = NULL
		WHERE case_id = $1`, caseID)
	return tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

// --- Runs ------------------------------------------------------------------

func (p *Postgres) CreateRun(ctx context.Context, run *models.Run) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO investigation_runs (run_id, case_id, created_at, fingerprint, family, cluster,
			namespace, workload_kind, workload_name, classification, s3_report_key,
			s3_investigation_key, analysis_snapshot)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		run.RunID, run.CaseID, run.CreatedAt, run.Fingerprint, run.Family, run.Cluster,
		run.Namespace, run.WorkloadKind, run.WorkloadName, run.Classification, run.S3ReportKey,
		run.S3InvestigationKey, run.AnalysisSnapshot)
	return tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

func (p *Postgres) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	var r models.Run
	err := p.db.GetContext(ctx, &r, `SELECT * FROM investigation_runs WHERE run_id = $1`, runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	return &r, nil
}

func (p *Postgres) ListRunsForCase(ctx context.Context, caseID string, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*models.Run
	err := p.db.SelectContext(ctx, &runs, `
		SELECT * FROM investigation_runs WHERE case_id = $1 ORDER BY created_at DESC LIMIT $2`,
		caseID, limit)
	return runs, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

// LatestRunForCase implements the "(case_id, created_at) selects the
// latest analysis" invariant (spec.md §3 Run).
func (p *Postgres) LatestRunForCase(ctx context.Context, caseID string) (*models.Run, error) {
	runs, err := p.ListRunsForCase(ctx, caseID, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// FindSimilarRuns implements spec.md §4.4's similarity query: match on
// {family, cluster?, namespace?, workload_kind?, workload_name?}, with
// prefix matching on workload_name for generated Job names, excluding the
// current fingerprint.
func (p *Postgres) FindSimilarRuns(ctx context.Context, family, cluster, namespace, workloadKind, workloadName, excludeFingerprint string, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 10
	}
	clauses := []string{"family = $1", "fingerprint != $2"}
	args := []any{family, excludeFingerprint}
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("cluster", cluster)
	add("namespace", namespace)
	add("workload_kind", workloadKind)

	if workloadName != "" {
		prefix := jobNamePrefix(workloadKind, workloadName)
		if prefix != workloadName {
			args = append(args, prefix+"%")
			clauses = append(clauses, fmt.Sprintf("workload_name LIKE $%d", len(args)))
		} else {
			add("workload_name", workloadName)
		}
	}

	args = append(args, limit)
	query := fmt.Sprintf(`SELECT * FROM investigation_runs WHERE %s ORDER BY created_at DESC LIMIT $%d`,
		strings.Join(clauses, " AND "), len(args))

	var runs []*models.Run
	err := p.db.SelectContext(ctx, &runs, query, args...)
	return runs, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

// CountRunsByFamily implements the chat fast path's single SQL aggregation
// (spec.md §4.9): count investigation_runs since a cutoff, filtered by
// family and, optionally, a target workload name.
func (p *Postgres) CountRunsByFamily(ctx context.Context, family, target string, since time.Time) (int, error) {
	clauses := []string{"family = $1", "created_at >= $2"}
	args := []any{family, since}
	if target != "" {
		args = append(args, target)
		clauses = append(clauses, fmt.Sprintf("workload_name = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM investigation_runs WHERE %s`, strings.Join(clauses, " AND "))

	var count int
	err := p.db.GetContext(ctx, &count, query, args...)
	return count, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

// --- Actions -----------------------------------------------------------

func (p *Postgres) CreateAction(ctx context.Context, a *models.ActionProposal) error {
	if a.ActionID == "" {
		a.ActionID = uuid.NewString()
	}
	precond, _ := json.Marshal(a.Preconditions)
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO case_actions (action_id, case_id, run_id, hypothesis_id, action_type, title,
			risk, preconditions, execution_payload, status, proposed_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ActionID, a.CaseID, a.RunID, a.HypothesisID, a.ActionType, a.Title, a.Risk, precond,
		a.ExecutionPayload, a.Status, a.ProposedBy)
	return tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

func (p *Postgres) GetAction(ctx context.Context, actionID string) (*models.ActionProposal, error) {
	var a models.ActionProposal
	var precond []byte
	row := p.db.QueryRowxContext(ctx, `SELECT * FROM case_actions WHERE action_id = $1`, actionID)
	if err := row.StructScan(&a); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	if len(precond) > 0 {
		_ = json.Unmarshal(precond, &a.Preconditions)
	}
	return &a, nil
}

func (p *Postgres) ListActionsForCase(ctx context.Context, caseID string) ([]*models.ActionProposal, error) {
	var actions []*models.ActionProposal
	err := p.db.SelectContext(ctx, &actions, `SELECT * FROM case_actions WHERE case_id = $1 ORDER BY action_id`, caseID)
	return actions, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

func (p *Postgres) UpdateActionStatus(ctx context.Context, actionID string, status models.ActionStatus, actor string, at time.Time) error {
	var err error
	switch status {
	case models.ActionApproved:
		_, err = p.db.ExecContext(ctx, `UPDATE case_actions SET status=$2, approved_by=$3, approved_at=$4 WHERE action_id=$1`, actionID, status, actor, at)
	case models.ActionExecuted:
		_, err = p.db.ExecContext(ctx, `UPDATE case_actions SET status=$2, executed_by=$3, executed_at=$4 WHERE action_id=$1`, actionID, status, actor, at)
	default:
		_, err = p.db.ExecContext(ctx, `UPDATE case_actions SET status=$2 WHERE action_id=$1`, actionID, status)
	}
	return tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

// --- Chat ----------------------------------------------------------------

func (p *Postgres) GetOrCreateThread(ctx context.Context, userKey string, kind models.ChatThreadKind, caseID *string) (*models.ChatThread, error) {
	if userKey == "" {
		return nil, tarkaerrors.New(tarkaerrors.CodeUserKeyRequired)
	}
	var t models.ChatThread
	var err error
	if kind == models.ChatGlobal {
		err = p.db.GetContext(ctx, &t, `SELECT * FROM chat_threads WHERE user_key=$1 AND kind='global'`, userKey)
	} else {
		err = p.db.GetContext(ctx, &t, `SELECT * FROM chat_threads WHERE user_key=$1 AND kind='case' AND case_id=$2`, userKey, caseID)
	}
	if err == nil {
		return &t, nil
	}
	if err != sql.ErrNoRows {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}

	now := time.Now().UTC()
	t = models.ChatThread{
		ThreadID:  uuid.NewString(),
		UserKey:   userKey,
		Kind:      kind,
		CaseID:    caseID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO chat_threads (thread_id, user_key, kind, case_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`, t.ThreadID, t.UserKey, t.Kind, t.CaseID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	return &t, nil
}

func (p *Postgres) GetThread(ctx context.Context, threadID string) (*models.ChatThread, error) {
	var t models.ChatThread
	err := p.db.GetContext(ctx, &t, `SELECT * FROM chat_threads WHERE thread_id=$1`, threadID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &t, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

// AppendMessage assigns Seq under a row lock on the thread (spec.md §5
// Ordering: "messages are strictly ordered by seq, assigned under a SELECT
// ... FOR UPDATE on the thread row").
func (p *Postgres) AppendMessage(ctx context.Context, threadID string, role models.ChatRole, content string) (*models.ChatMessage, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT thread_id FROM chat_threads WHERE thread_id=$1 FOR UPDATE`, threadID); err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	var maxSeq sql.NullInt64
	if err := tx.GetContext(ctx, &maxSeq, `SELECT MAX(seq) FROM chat_messages WHERE thread_id=$1`, threadID); err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	now := time.Now().UTC()
	msg := &models.ChatMessage{
		MessageID: uuid.NewString(),
		ThreadID:  threadID,
		Seq:       maxSeq.Int64 + 1,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_messages (message_id, thread_id, seq, role, content, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`, msg.MessageID, msg.ThreadID, msg.Seq, msg.Role, msg.Content, msg.CreatedAt); err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chat_threads SET updated_at=now(), last_message_at=now() WHERE thread_id=$1`, threadID); err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
	}
	return msg, nil
}

func (p *Postgres) ListMessages(ctx context.Context, threadID string, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var msgs []*models.ChatMessage
	err := p.db.SelectContext(ctx, &msgs, `
		SELECT * FROM chat_messages WHERE thread_id=$1 ORDER BY seq ASC LIMIT $2`, threadID, limit)
	return msgs, tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
}

func (p *Postgres) AppendToolEvents(ctx context.Context, messageID string, events []models.ToolEvent) error {
	for i := range events {
		e := &events[i]
		if e.EventID == "" {
			e.EventID = uuid.NewString()
		}
		_, err := p.db.ExecContext(ctx, `
			INSERT INTO chat_tool_events (event_id, message_id, tool, args, ok, error, outcome, summary, key, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			e.EventID, messageID, e.Tool, e.Args, e.OK, e.Error, e.Outcome, e.Summary, e.Key, time.Now().UTC())
		if err != nil {
			return tarkaerrors.Wrap(tarkaerrors.CodeDBUnavailable, err)
		}
	}
	return nil
}
