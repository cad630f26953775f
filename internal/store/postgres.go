package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"campaign-engine/internal/common/database"
	"campaign-engine/internal/common/errors"
	"campaign-engine/internal/common/logger"
	"campaign-engine/internal/models"
)

// PostgresStore implements Store on PostgreSQL. Message variants and variable
// maps are stored as JSONB; contact timestamps are nullable columns.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgres(client *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: client.DB, logger: log}
}

const messageColumns = `id, campaign_id, default_title, default_content, default_language,
	variants, template_variables, default_variables,
	total_recipients, sent_count, delivered_count, failed_count, opt_out_count`

func (s *PostgresStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	var (
		msg          models.Message
		variants     []byte
		templateVars []byte
		defaultVars  []byte
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID, &msg.CampaignID, &msg.DefaultTitle, &msg.DefaultContent, &msg.DefaultLanguage,
		&variants, &templateVars, &defaultVars,
		&msg.TotalRecipients, &msg.SentCount, &msg.DeliveredCount, &msg.FailedCount, &msg.OptOutCount,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewMessageNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewPersistenceError("get message", err)
	}

	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &msg.Variants); err != nil {
			return nil, errors.NewPersistenceError("decode message variants", err)
		}
	}
	if len(templateVars) > 0 {
		if err := json.Unmarshal(templateVars, &msg.TemplateVars); err != nil {
			return nil, errors.NewPersistenceError("decode template variables", err)
		}
	}
	if len(defaultVars) > 0 {
		if err := json.Unmarshal(defaultVars, &msg.DefaultVars); err != nil {
			return nil, errors.NewPersistenceError("decode default variables", err)
		}
	}
	return &msg, nil
}

func (s *PostgresStore) UpdateCounters(ctx context.Context, msg *models.Message) error {
	query := `UPDATE messages
		SET total_recipients = $2, sent_count = $3, delivered_count = $4,
			failed_count = $5, opt_out_count = $6
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.TotalRecipients, msg.SentCount, msg.DeliveredCount,
		msg.FailedCount, msg.OptOutCount,
	)
	if err != nil {
		return errors.NewPersistenceError("update message counters", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return errors.NewMessageNotFoundError(msg.ID)
	}
	return nil
}

func (s *PostgresStore) GetVoter(ctx context.Context, id string) (*models.Voter, error) {
	query := `SELECT id, first_name, last_name, constituency, assembly_segment, booth_number,
			age, gender, occupation, preferred_language, phone, email, custom_field, opted_out
		FROM voters WHERE id = $1`

	var v models.Voter
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.FirstName, &v.LastName, &v.Constituency, &v.AssemblySegment, &v.BoothNumber,
		&v.Age, &v.Gender, &v.Occupation, &v.PreferredLanguage, &v.Phone, &v.Email,
		&v.CustomField, &v.OptedOut,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewVoterNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewPersistenceError("get voter", err)
	}
	return &v, nil
}

const contactColumns = `id, voter_id, campaign_id, message_id, channel, status, language,
	scheduled_at, sent_at, delivered_at, read_at,
	response_status, response_text, response_time,
	open_count, click_count, reply_count,
	error_code, error_message, retry_count`

func (s *PostgresStore) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`

	contact, err := scanContact(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewContactNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewPersistenceError("get contact", err)
	}
	return contact, nil
}

func (s *PostgresStore) ListPendingByCampaign(ctx context.Context, campaignID, messageID string) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE campaign_id = $1 AND message_id = $2 AND status = $3
		ORDER BY id`

	return s.listContacts(ctx, query, campaignID, messageID, string(models.StatusPending))
}

func (s *PostgresStore) ListFailedByMessage(ctx context.Context, messageID string, maxRetries int) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE message_id = $1 AND status = $2 AND retry_count < $3
		ORDER BY id`

	return s.listContacts(ctx, query, messageID, string(models.StatusFailed), maxRetries)
}

func (s *PostgresStore) ListByMessage(ctx context.Context, messageID string) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE message_id = $1 ORDER BY id`

	return s.listContacts(ctx, query, messageID)
}

func (s *PostgresStore) UpdateContact(ctx context.Context, c *models.Contact) error {
	query := `UPDATE contacts
		SET status = $2, language = $3,
			scheduled_at = $4, sent_at = $5, delivered_at = $6, read_at = $7,
			response_status = $8, response_text = $9, response_time = $10,
			open_count = $11, click_count = $12, reply_count = $13,
			error_code = $14, error_message = $15, retry_count = $16
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		c.ID, string(c.Status), c.Language,
		nullTime(c.ScheduledAt), nullTime(c.SentAt), nullTime(c.DeliveredAt), nullTime(c.ReadAt),
		c.ResponseStatus, c.ResponseText, nullTime(c.ResponseTime),
		c.OpenCount, c.ClickCount, c.ReplyCount,
		c.ErrorCode, c.ErrorMessage, c.RetryCount,
	)
	if err != nil {
		return errors.NewPersistenceError("update contact", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return errors.NewContactNotFoundError(c.ID)
	}
	return nil
}

func (s *PostgresStore) listContacts(ctx context.Context, query string, args ...interface{}) ([]*models.Contact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewPersistenceError("list contacts", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, errors.NewPersistenceError("scan contact", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("list contacts", err)
	}
	return contacts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		c                                        models.Contact
		status                                   string
		scheduledAt, sentAt, deliveredAt, readAt sql.NullTime
		responseTime                             sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.VoterID, &c.CampaignID, &c.MessageID, &c.Channel, &status, &c.Language,
		&scheduledAt, &sentAt, &deliveredAt, &readAt,
		&c.ResponseStatus, &c.ResponseText, &responseTime,
		&c.OpenCount, &c.ClickCount, &c.ReplyCount,
		&c.ErrorCode, &c.ErrorMessage, &c.RetryCount,
	)
	if err != nil {
		return nil, err
	}
	c.Status = models.ContactStatus(status)
	c.ScheduledAt = timePtr(scheduledAt)
	c.SentAt = timePtr(sentAt)
	c.DeliveredAt = timePtr(deliveredAt)
	c.ReadAt = timePtr(readAt)
	c.ResponseTime = timePtr(responseTime)
	return &c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
