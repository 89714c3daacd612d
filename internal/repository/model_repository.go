package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Model statuses. A rejected model is deleted rather than kept in a
// terminal status, so "rejected" never appears in the table.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// UserRef is the subset of a user embedded in model responses.
type UserRef struct {
	ID       uint64 `json:"id"`
	Username string `json:"username,omitempty"`
}

// Purchase records one buyer acquiring one model. At most one purchase
// exists per (model, buyer) pair; rows are append-only.
type Purchase struct {
	Buyer        UserRef   `json:"buyer"`
	PurchaseDate time.Time `json:"purchaseDate"`
}

// Model mirrors the 'models' table plus the populated creator username
// and purchase list used by the catalog endpoints.
type Model struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	FileURL     string     `json:"fileUrl"`
	Creator     UserRef    `json:"creator"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	Purchases   []Purchase `json:"purchases"`
}

type ModelRepo struct{ DB *sql.DB }

func NewModelRepo(db *sql.DB) *ModelRepo { return &ModelRepo{DB: db} }

// Create inserts a new model in the pending status and populates the
// generated id and timestamp on m.
func (r *ModelRepo) Create(ctx context.Context, m *Model) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO models (title, description, price, file_url, creator_id, status) VALUES (?,?,?,?,?,?)",
		m.Title, m.Description, m.Price, m.FileURL, m.Creator.ID, StatusPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.Status = StatusPending
	if m.Purchases == nil {
		m.Purchases = []Purchase{}
	}
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM models WHERE id=?", m.ID).Scan(&m.CreatedAt)
}

// GetByID fetches a model without populating creator username or purchases.
func (r *ModelRepo) GetByID(ctx context.Context, id uint64) (Model, error) {
	var m Model
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,title,description,price,file_url,creator_id,status,created_at FROM models WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.Title, &m.Description, &m.Price, &m.FileURL, &m.Creator.ID, &m.Status, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrModelNotFound
	}
	m.Purchases = []Purchase{}
	return m, err
}

// GetWithCreator fetches a model with the creator username populated. The
// moderation paths use it so notifications can reference the owner.
func (r *ModelRepo) GetWithCreator(ctx context.Context, id uint64) (Model, error) {
	var m Model
	err := r.DB.QueryRowContext(ctx,
		`SELECT m.id,m.title,m.description,m.price,m.file_url,m.creator_id,u.username,m.status,m.created_at
		 FROM models m JOIN users u ON u.id = m.creator_id
		 WHERE m.id=? LIMIT 1`,
		id).Scan(&m.ID, &m.Title, &m.Description, &m.Price, &m.FileURL,
		&m.Creator.ID, &m.Creator.Username, &m.Status, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrModelNotFound
	}
	m.Purchases = []Purchase{}
	return m, err
}

// GetDetailed fetches a single model with creator username and purchase
// list populated, as returned after a purchase.
func (r *ModelRepo) GetDetailed(ctx context.Context, id uint64) (Model, error) {
	out, err := r.list(ctx,
		`SELECT m.id,m.title,m.description,m.price,m.file_url,m.creator_id,u.username,m.status,m.created_at
		 FROM models m JOIN users u ON u.id = m.creator_id
		 WHERE m.id=? LIMIT 1`,
		true, id)
	if err != nil {
		return Model{}, err
	}
	if len(out) == 0 {
		return Model{}, ErrModelNotFound
	}
	return out[0], nil
}

// ListPending returns models awaiting moderation, newest first, with the
// creator username populated for the admin dashboard.
func (r *ModelRepo) ListPending(ctx context.Context) ([]Model, error) {
	return r.list(ctx,
		`SELECT m.id,m.title,m.description,m.price,m.file_url,m.creator_id,u.username,m.status,m.created_at
		 FROM models m JOIN users u ON u.id = m.creator_id
		 WHERE m.status=? ORDER BY m.created_at DESC, m.id DESC`,
		false, StatusPending)
}

// ListAll returns every model regardless of status with creator usernames
// and purchase buyer usernames populated. Filtering to approved-only is a
// client concern on the catalog endpoint.
func (r *ModelRepo) ListAll(ctx context.Context) ([]Model, error) {
	return r.list(ctx,
		`SELECT m.id,m.title,m.description,m.price,m.file_url,m.creator_id,u.username,m.status,m.created_at
		 FROM models m JOIN users u ON u.id = m.creator_id
		 ORDER BY m.created_at DESC, m.id DESC`,
		true)
}

// ListPublic returns only approved models, newest first, with creator and
// purchase buyer usernames populated. Callers that want the catalog
// pre-filtered use this instead of ListAll.
func (r *ModelRepo) ListPublic(ctx context.Context) ([]Model, error) {
	return r.list(ctx,
		`SELECT m.id,m.title,m.description,m.price,m.file_url,m.creator_id,u.username,m.status,m.created_at
		 FROM models m JOIN users u ON u.id = m.creator_id
		 WHERE m.status=? ORDER BY m.created_at DESC, m.id DESC`,
		true, StatusApproved)
}

// ListByCreator returns a creator's models with purchases populated.
func (r *ModelRepo) ListByCreator(ctx context.Context, creatorID uint64) ([]Model, error) {
	return r.list(ctx,
		`SELECT m.id,m.title,m.description,m.price,m.file_url,m.creator_id,u.username,m.status,m.created_at
		 FROM models m JOIN users u ON u.id = m.creator_id
		 WHERE m.creator_id=? ORDER BY m.created_at DESC, m.id DESC`,
		true, creatorID)
}

// list runs a model query and optionally attaches purchase lists.
func (r *ModelRepo) list(ctx context.Context, query string, withPurchases bool, args ...any) ([]Model, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Model{}
	for rows.Next() {
		var m Model
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Price, &m.FileURL,
			&m.Creator.ID, &m.Creator.Username, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Purchases = []Purchase{}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !withPurchases || len(out) == 0 {
		return out, nil
	}

	ids := make([]any, 0, len(out))
	ph := make([]string, 0, len(out))
	for _, m := range out {
		ids = append(ids, m.ID)
		ph = append(ph, "?")
	}
	prows, err := r.DB.QueryContext(ctx, fmt.Sprintf(
		`SELECT p.model_id,p.buyer_id,u.username,p.created_at
		 FROM purchases p JOIN users u ON u.id = p.buyer_id
		 WHERE p.model_id IN (%s) ORDER BY p.created_at`, strings.Join(ph, ",")), ids...)
	if err != nil {
		return nil, err
	}
	defer prows.Close()

	byModel := map[uint64][]Purchase{}
	for prows.Next() {
		var modelID uint64
		var p Purchase
		if err := prows.Scan(&modelID, &p.Buyer.ID, &p.Buyer.Username, &p.PurchaseDate); err != nil {
			return nil, err
		}
		byModel[modelID] = append(byModel[modelID], p)
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if ps, ok := byModel[out[i].ID]; ok {
			out[i].Purchases = ps
		}
	}
	return out, nil
}

// Approve flips a pending model to approved. The update is conditional on
// the current status, so the transition is one-shot: approving a model that
// was already decided (or deleted by a concurrent reject) reports
// ErrModelNotFound. Under a race between approve and reject, the reject
// therefore wins.
func (r *ModelRepo) Approve(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE models SET status=? WHERE id=? AND status=?",
		StatusApproved, id, StatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrModelNotFound
	}
	return nil
}

// Delete removes a model row and its purchases (via FK cascade). Deleting
// an id that is already gone is a no-op so concurrent deletes stay quiet.
func (r *ModelRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM models WHERE id=?", id)
	return err
}

// AddPurchase records a purchase by buyerID. The UNIQUE(model_id, buyer_id)
// key enforces the at-most-one-purchase invariant; a duplicate insert maps
// to ErrAlreadyPurchased. Only approved models can be purchased.
func (r *ModelRepo) AddPurchase(ctx context.Context, modelID, buyerID uint64) error {
	var status string
	err := r.DB.QueryRowContext(ctx,
		"SELECT status FROM models WHERE id=? LIMIT 1", modelID).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrModelNotFound
	}
	if err != nil {
		return err
	}
	if status != StatusApproved {
		return ErrNotApproved
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO purchases (model_id, buyer_id) VALUES (?,?)", modelID, buyerID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyPurchased
		}
		return err
	}
	return nil
}
