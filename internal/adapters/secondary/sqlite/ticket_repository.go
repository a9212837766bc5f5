// Package sqlite stores tickets in a single SQLite file through gorm.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lorrc/ticket-desk/internal/core/domain"
	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

// ticketModel is the row layout. Times are epoch milliseconds.
type ticketModel struct {
	ID           int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Description  string  `gorm:"column:description;type:text;not null"`
	Summary      string  `gorm:"column:summary;type:text;not null"`
	TicketNumber string  `gorm:"column:ticket_number;type:text;not null"`
	CreatedAtMs  int64   `gorm:"column:created_at;not null;index:idx_tickets_created_at"`
	ReminderAtMs int64   `gorm:"column:reminder_time;not null;index:idx_tickets_due"`
	Completed    bool    `gorm:"column:completed;not null;default:false;index:idx_tickets_due"`
	Email        *string `gorm:"column:email;type:text"`
	Phone        *string `gorm:"column:phone;type:text"`
	Assignee     string  `gorm:"column:assignee;type:text;not null;default:Kevin"`
}

func (ticketModel) TableName() string {
	return "tickets"
}

// TicketRepository is a file-backed ports.TicketRepository.
type TicketRepository struct {
	db *gorm.DB
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

// Open creates the database file and its directory when missing and
// migrates the tickets table.
func Open(ctx context.Context, path string) (*TicketRepository, error) {
	if err := ensureDirectory(path); err != nil {
		return nil, fmt.Errorf("ensure sqlite directory: %w", err)
	}

	db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	// SQLite allows one writer at a time.
	sqlDB.SetMaxOpenConns(1)

	if err := db.WithContext(ctx).AutoMigrate(&ticketModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate tickets table: %w", err)
	}

	return &TicketRepository{db: db}, nil
}

func ensureDirectory(path string) error {
	candidate := strings.TrimSpace(path)
	if candidate == "" || candidate == ":memory:" {
		return nil
	}
	candidate = strings.TrimPrefix(candidate, "file:")
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}

	dir := filepath.Dir(candidate)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (r *TicketRepository) Insert(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	row := toModel(ticket)
	row.ID = 0
	row.Completed = false

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, apperrors.NewStorageError("insert ticket", err)
	}
	return toDomain(row), nil
}

func (r *TicketRepository) MarkCompleted(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&ticketModel{}).
		Where("id = ? AND completed = ?", id, false).
		Update("completed", true)
	if res.Error != nil {
		return false, apperrors.NewStorageError("mark completed", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *TicketRepository) ListAll(ctx context.Context) ([]*domain.Ticket, error) {
	var rows []ticketModel
	if err := r.db.WithContext(ctx).Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, apperrors.NewStorageError("list tickets", err)
	}
	return toDomainList(rows), nil
}

func (r *TicketRepository) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Ticket, error) {
	var rows []ticketModel
	err := r.db.WithContext(ctx).
		Where("completed = ? AND reminder_time <= ?", false, now.UnixMilli()).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewStorageError("list due reminders", err)
	}
	return toDomainList(rows), nil
}

func (r *TicketRepository) UpdateAssignee(ctx context.Context, id int64, assignee string) (*domain.Ticket, error) {
	var row ticketModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&ticketModel{}).Where("id = ?", id).Update("assignee", assignee)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrTicketNotFound
		}
		return tx.First(&row, id).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrTicketNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, apperrors.NewStorageError("update assignee", err)
	}
	return toDomain(row), nil
}

func (r *TicketRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *TicketRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(t *domain.Ticket) ticketModel {
	return ticketModel{
		ID:           t.ID,
		Description:  t.Description,
		Summary:      t.Summary,
		TicketNumber: t.TicketNumber,
		CreatedAtMs:  t.CreatedAt.UnixMilli(),
		ReminderAtMs: t.ReminderTime.UnixMilli(),
		Completed:    t.Completed,
		Email:        t.Email,
		Phone:        t.Phone,
		Assignee:     t.Assignee,
	}
}

func toDomain(m ticketModel) *domain.Ticket {
	return &domain.Ticket{
		ID:           m.ID,
		Description:  m.Description,
		Summary:      m.Summary,
		TicketNumber: m.TicketNumber,
		CreatedAt:    time.UnixMilli(m.CreatedAtMs).UTC(),
		ReminderTime: time.UnixMilli(m.ReminderAtMs).UTC(),
		Completed:    m.Completed,
		Email:        m.Email,
		Phone:        m.Phone,
		Assignee:     m.Assignee,
	}
}

func toDomainList(rows []ticketModel) []*domain.Ticket {
	tickets := make([]*domain.Ticket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, toDomain(row))
	}
	return tickets
}
