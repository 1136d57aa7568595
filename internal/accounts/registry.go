package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cleared-dev/registru/internal/events"
	"github.com/cleared-dev/registru/internal/id"
	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/logging"
	"github.com/cleared-dev/registru/internal/metrics"
	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/store"
)

// Registry owns the chart of accounts.
type Registry struct {
	db      *store.DB
	notify  *events.Notifier
	metrics *metrics.Metrics
	log     *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithNotifier publishes account events after each committed change.
func WithNotifier(n *events.Notifier) Option { return func(r *Registry) { r.notify = n } }

// WithMetrics counts account changes.
func WithMetrics(m *metrics.Metrics) Option { return func(r *Registry) { r.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(r *Registry) { r.log = l } }

// NewRegistry creates a Registry over db.
func NewRegistry(db *store.DB, opts ...Option) *Registry {
	r := &Registry{db: db}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrDiscard(r.log)
	return r
}

// CreateParams describes a new account. ParentID is optional.
type CreateParams struct {
	Code        string
	Name        string
	Type        model.AccountType
	ParentID    string
	Description string
}

func (p *CreateParams) normalize() error {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.ParentID = strings.TrimSpace(p.ParentID)
	p.Description = strings.TrimSpace(p.Description)
	if p.Code == "" {
		return &ValidationError{Field: "code", Reason: "is required"}
	}
	if strings.ContainsAny(p.Code, " \t,") {
		return &ValidationError{Field: "code", Reason: "must not contain spaces or commas"}
	}
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if !p.Type.Valid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not one of asset, liability, equity, revenue, expense", p.Type)}
	}
	return nil
}

// Create registers a new active account.
func (r *Registry) Create(ctx context.Context, p CreateParams) (model.Account, error) {
	if err := p.normalize(); err != nil {
		return model.Account{}, err
	}

	var row store.AccountRow
	err := r.db.Update(ctx, func(tx *gorm.DB) error {
		var err error
		row, err = r.insert(tx, p, true)
		return err
	})
	if err != nil {
		return model.Account{}, err
	}

	acct := row.Model()
	r.log.Info("account created", "code", acct.Code, "type", acct.Type, "id", acct.ID)
	r.metrics.RecordAccountChange("create")
	r.notify.Notify(ctx, events.AccountChanged(events.TypeAccountCreated, acct))
	return acct, nil
}

// insert validates uniqueness and the parent, then writes the row.
func (r *Registry) insert(tx *gorm.DB, p CreateParams, active bool) (store.AccountRow, error) {
	var n int64
	if err := tx.Model(&store.AccountRow{}).Where("code = ?", p.Code).Count(&n).Error; err != nil {
		return store.AccountRow{}, fmt.Errorf("checking account code: %w", err)
	}
	if n > 0 {
		return store.AccountRow{}, &DuplicateCodeError{Code: p.Code}
	}

	acct := model.Account{
		ID:          id.New(),
		Code:        p.Code,
		Name:        p.Name,
		Type:        p.Type,
		ParentID:    p.ParentID,
		Description: p.Description,
		Active:      active,
		CreatedAt:   time.Now().UTC(),
	}
	if p.ParentID != "" {
		if err := checkParent(tx, acct.ID, p.ParentID); err != nil {
			return store.AccountRow{}, err
		}
	}

	row := store.AccountRowFrom(acct)
	if err := tx.Create(&row).Error; err != nil {
		if store.IsDuplicateKey(err) {
			return store.AccountRow{}, &DuplicateCodeError{Code: p.Code}
		}
		return store.AccountRow{}, fmt.Errorf("inserting account %s: %w", p.Code, err)
	}
	return row, nil
}

// checkParent walks up from parentID and fails if the chain is broken or
// reaches accountID.
func checkParent(tx *gorm.DB, accountID, parentID string) error {
	seen := make(map[string]bool)
	for cur := parentID; cur != ""; {
		if cur == accountID || seen[cur] {
			return &CyclicHierarchyError{AccountID: accountID, ParentID: parentID}
		}
		seen[cur] = true

		var row store.AccountRow
		err := tx.Select("id", "parent_id").Take(&row, "id = ?", cur).Error
		if store.IsNotFound(err) {
			return &CyclicHierarchyError{AccountID: accountID, ParentID: parentID, Missing: true}
		}
		if err != nil {
			return fmt.Errorf("loading parent account %s: %w", cur, err)
		}
		if row.ParentID == nil {
			return nil
		}
		cur = *row.ParentID
	}
	return nil
}

func (r *Registry) lock(tx *gorm.DB, accountID string) (store.AccountRow, error) {
	var row store.AccountRow
	err := r.db.ForUpdate(tx).Take(&row, "id = ?", accountID).Error
	if store.IsNotFound(err) {
		return row, &ledgererr.NotFoundError{Entity: "account", Key: accountID}
	}
	if err != nil {
		return row, fmt.Errorf("loading account %s: %w", accountID, err)
	}
	return row, nil
}

// Deactivate hides an account from new postings. The account's all-time
// net balance must be zero. Deactivating an inactive account is a no-op.
func (r *Registry) Deactivate(ctx context.Context, accountID string) (model.Account, error) {
	var row store.AccountRow
	changed := false
	err := r.db.Update(ctx, func(tx *gorm.DB) error {
		var err error
		if row, err = r.lock(tx, accountID); err != nil {
			return err
		}
		if !row.Active {
			return nil
		}

		totals, err := store.SumByAccount(tx, time.Time{}, accountID)
		if err != nil {
			return err
		}
		t := totals[accountID]
		if net := model.AccountType(row.Type).NetBalance(t.Debit, t.Credit); !net.IsZero() {
			return &NonZeroBalanceError{AccountID: row.ID, Code: row.Code, Balance: net}
		}

		if err := tx.Model(&row).Update("active", false).Error; err != nil {
			return fmt.Errorf("deactivating account %s: %w", row.Code, err)
		}
		row.Active = false
		changed = true
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}

	acct := row.Model()
	if changed {
		r.log.Info("account deactivated", "code", acct.Code, "id", acct.ID)
		r.metrics.RecordAccountChange("deactivate")
		r.notify.Notify(ctx, events.AccountChanged(events.TypeAccountDeactivated, acct))
	}
	return acct, nil
}

// Reactivate makes an account available for postings again.
func (r *Registry) Reactivate(ctx context.Context, accountID string) (model.Account, error) {
	var row store.AccountRow
	changed := false
	err := r.db.Update(ctx, func(tx *gorm.DB) error {
		var err error
		if row, err = r.lock(tx, accountID); err != nil {
			return err
		}
		if row.Active {
			return nil
		}
		if err := tx.Model(&row).Update("active", true).Error; err != nil {
			return fmt.Errorf("reactivating account %s: %w", row.Code, err)
		}
		row.Active = true
		changed = true
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}

	acct := row.Model()
	if changed {
		r.log.Info("account reactivated", "code", acct.Code, "id", acct.ID)
		r.metrics.RecordAccountChange("reactivate")
		r.notify.Notify(ctx, events.AccountChanged(events.TypeAccountReactivated, acct))
	}
	return acct, nil
}

// List returns accounts ordered by code.
func (r *Registry) List(ctx context.Context, includeInactive bool) ([]model.Account, error) {
	q := r.db.Gorm().WithContext(ctx).Order("code")
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	var rows []store.AccountRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	out := make([]model.Account, len(rows))
	for i, row := range rows {
		out[i] = row.Model()
	}
	return out, nil
}

// Get returns an account by id.
func (r *Registry) Get(ctx context.Context, accountID string) (model.Account, error) {
	return r.take(ctx, "id", accountID)
}

// GetByCode returns an account by code.
func (r *Registry) GetByCode(ctx context.Context, code string) (model.Account, error) {
	return r.take(ctx, "code", strings.TrimSpace(code))
}

func (r *Registry) take(ctx context.Context, column, key string) (model.Account, error) {
	var row store.AccountRow
	err := r.db.Gorm().WithContext(ctx).Take(&row, column+" = ?", key).Error
	if store.IsNotFound(err) {
		return model.Account{}, &ledgererr.NotFoundError{Entity: "account", Key: key}
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("loading account %s: %w", key, err)
	}
	return row.Model(), nil
}

// SetParent moves an account under parentID, or to the top level when
// parentID is empty.
func (r *Registry) SetParent(ctx context.Context, accountID, parentID string) (model.Account, error) {
	parentID = strings.TrimSpace(parentID)
	var row store.AccountRow
	err := r.db.Update(ctx, func(tx *gorm.DB) error {
		var err error
		if row, err = r.lock(tx, accountID); err != nil {
			return err
		}
		var parent any = gorm.Expr("NULL")
		if parentID != "" {
			if err := checkParent(tx, accountID, parentID); err != nil {
				return err
			}
			parent = parentID
		}
		if err := tx.Model(&row).Update("parent_id", parent).Error; err != nil {
			return fmt.Errorf("moving account %s: %w", row.Code, err)
		}
		row.ParentID = nil
		if parentID != "" {
			row.ParentID = &parentID
		}
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}

	acct := row.Model()
	r.log.Info("account moved", "code", acct.Code, "parent_id", acct.ParentID)
	r.metrics.RecordAccountChange("move")
	r.notify.Notify(ctx, events.AccountChanged(events.TypeAccountMoved, acct))
	return acct, nil
}

// ChangeType changes the type of an account no journal line references.
func (r *Registry) ChangeType(ctx context.Context, accountID string, t model.AccountType) (model.Account, error) {
	if !t.Valid() {
		return model.Account{}, &ValidationError{Field: "type", Reason: fmt.Sprintf("%q is not a valid account type", t)}
	}
	var row store.AccountRow
	err := r.db.Update(ctx, func(tx *gorm.DB) error {
		var err error
		if row, err = r.lock(tx, accountID); err != nil {
			return err
		}
		if model.AccountType(row.Type) == t {
			return nil
		}
		n, err := store.CountLines(tx, accountID)
		if err != nil {
			return err
		}
		if n > 0 {
			return &TypeLockedError{AccountID: row.ID, Code: row.Code, Lines: n}
		}
		if err := tx.Model(&row).Update("type", string(t)).Error; err != nil {
			return fmt.Errorf("changing type of account %s: %w", row.Code, err)
		}
		row.Type = string(t)
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}

	acct := row.Model()
	r.log.Info("account type changed", "code", acct.Code, "type", acct.Type)
	r.metrics.RecordAccountChange("retype")
	r.notify.Notify(ctx, events.AccountChanged(events.TypeAccountTypeChanged, acct))
	return acct, nil
}

// Import creates accounts from CSV records in one transaction. A record's
// parent is looked up by code among existing accounts and earlier records.
// Either every record is created or none is.
func (r *Registry) Import(ctx context.Context, records []CSVAccount) ([]model.Account, error) {
	created := make([]model.Account, 0, len(records))
	err := r.db.Update(ctx, func(tx *gorm.DB) error {
		for i, rec := range records {
			p := CreateParams{
				Code:        rec.Code,
				Name:        rec.Name,
				Type:        rec.Type,
				Description: rec.Description,
			}
			if code := strings.TrimSpace(rec.ParentCode); code != "" {
				var parent store.AccountRow
				err := tx.Select("id").Take(&parent, "code = ?", code).Error
				if store.IsNotFound(err) {
					return fmt.Errorf("record %d (%s): %w", i+1, rec.Code,
						&CyclicHierarchyError{ParentID: code, Missing: true})
				}
				if err != nil {
					return fmt.Errorf("record %d (%s): resolving parent: %w", i+1, rec.Code, err)
				}
				p.ParentID = parent.ID
			}
			if err := p.normalize(); err != nil {
				return fmt.Errorf("record %d: %w", i+1, err)
			}
			row, err := r.insert(tx, p, rec.Active)
			if err != nil {
				return fmt.Errorf("record %d: %w", i+1, err)
			}
			created = append(created, row.Model())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	evs := make([]events.Event, len(created))
	for i, acct := range created {
		evs[i] = events.AccountChanged(events.TypeAccountCreated, acct)
		r.metrics.RecordAccountChange("create")
	}
	r.log.Info("accounts imported", "count", len(created))
	r.notify.Notify(ctx, evs...)
	return created, nil
}
