package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/interviews-api/internal/models"
)

const mailingColumns = `mail_id, subject, body, is_default, created_by`

// MailingContentRepository persists notification templates.
type MailingContentRepository struct {
	db *sqlx.DB
}

// NewMailingContentRepository constructs the repository.
func NewMailingContentRepository(db *sqlx.DB) *MailingContentRepository {
	return &MailingContentRepository{db: db}
}

// List returns every template.
func (r *MailingContentRepository) List(ctx context.Context) ([]models.MailingContent, error) {
	query := `SELECT ` + mailingColumns + ` FROM mailing_contents ORDER BY mail_id ASC`
	var items []models.MailingContent
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list mailing contents: %w", err)
	}
	return items, nil
}

// FindByID returns a template by id.
func (r *MailingContentRepository) FindByID(ctx context.Context, id int64) (*models.MailingContent, error) {
	query := `SELECT ` + mailingColumns + ` FROM mailing_contents WHERE mail_id = $1`
	var item models.MailingContent
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find mailing content: %w", err)
	}
	return &item, nil
}

// FindDefault returns the template flagged as default.
func (r *MailingContentRepository) FindDefault(ctx context.Context) (*models.MailingContent, error) {
	query := `SELECT ` + mailingColumns + ` FROM mailing_contents WHERE is_default = TRUE ORDER BY mail_id ASC LIMIT 1`
	var item models.MailingContent
	if err := r.db.GetContext(ctx, &item, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find default mailing content: %w", err)
	}
	return &item, nil
}

// Create inserts a non-default template.
func (r *MailingContentRepository) Create(ctx context.Context, item *models.MailingContent) error {
	const query = `INSERT INTO mailing_contents (subject, body, is_default, created_by) VALUES ($1, $2, FALSE, $3) RETURNING mail_id`
	if err := r.db.GetContext(ctx, &item.MailID, query, item.Subject, item.Body, item.CreatedBy); err != nil {
		return fmt.Errorf("create mailing content: %w", err)
	}
	item.IsDefault = false
	return nil
}

// Update rewrites subject and body. An edited template stops being the default.
func (r *MailingContentRepository) Update(ctx context.Context, item *models.MailingContent) error {
	const query = `UPDATE mailing_contents SET subject = $1, body = $2, is_default = FALSE WHERE mail_id = $3`
	res, err := r.db.ExecContext(ctx, query, item.Subject, item.Body, item.MailID)
	if err != nil {
		return fmt.Errorf("update mailing content: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	item.IsDefault = false
	return nil
}

// Delete removes a template. ErrInUse is returned while schedules still reference it.
func (r *MailingContentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mailing_contents WHERE mail_id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("delete mailing content: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetDefault clears the current default and flags id instead, in one transaction.
func (r *MailingContentRepository) SetDefault(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set default mailing content: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockDefaultTemplate(ctx, tx); err != nil {
		return err
	}

	var locked int64
	if err = tx.GetContext(ctx, &locked, `SELECT mail_id FROM mailing_contents WHERE mail_id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock mailing content: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE mailing_contents SET is_default = FALSE WHERE is_default = TRUE`); err != nil {
		return fmt.Errorf("reset default mailing content: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE mailing_contents SET is_default = TRUE WHERE mail_id = $1`, id); err != nil {
		return fmt.Errorf("set default mailing content: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit default mailing content: %w", err)
	}
	return nil
}
