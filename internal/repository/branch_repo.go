package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Pipe0105/visor-realtime/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BranchSel is a resolved branch filter. The default branch is "the branch
// invoices without an explicit branch_id belong to", so selecting it means
// matching NULL branch ids (plus the branch row carrying the default code,
// when one exists).
type BranchSel struct {
	All         bool
	ID          *uuid.UUID
	IncludeNull bool
	Code        string
}

// Cond renders the selection as a SQL condition over column col.
// An empty condition means "no filter".
func (s BranchSel) Cond(col string) (string, []interface{}) {
	switch {
	case s.All:
		return "", nil
	case s.ID != nil && s.IncludeNull:
		return fmt.Sprintf("(%s = ? OR %s IS NULL)", col, col), []interface{}{*s.ID}
	case s.ID != nil:
		return fmt.Sprintf("%s = ?", col), []interface{}{*s.ID}
	default:
		return fmt.Sprintf("%s IS NULL", col), nil
	}
}

var ErrBranchNotFound = errors.New("branch not found")

type BranchRepository interface {
	List(ctx context.Context) ([]model.Branch, error)
	Create(ctx context.Context, b *model.Branch) error
	FindByCode(ctx context.Context, code string) (*model.Branch, error)
	// CodeMap returns branch id → upper-cased code for rollover labelling.
	CodeMap(ctx context.Context) (map[uuid.UUID]string, error)
	// Resolve turns a free-form filter (code, UUID, "all" or empty) into a
	// selection. Empty input selects the default branch.
	Resolve(ctx context.Context, filter, defaultCode string) (BranchSel, error)
}

type branchRepo struct{ db *gorm.DB }

func NewBranchRepository(db *gorm.DB) BranchRepository { return &branchRepo{db: db} }

func (r *branchRepo) List(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	err := r.db.WithContext(ctx).Order("created_at").Find(&branches).Error
	return branches, err
}

func (r *branchRepo) Create(ctx context.Context, b *model.Branch) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *branchRepo) FindByCode(ctx context.Context, code string) (*model.Branch, error) {
	var b model.Branch
	err := r.db.WithContext(ctx).Where("UPPER(code) = UPPER(?)", code).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBranchNotFound
	}
	return &b, err
}

func (r *branchRepo) CodeMap(ctx context.Context) (map[uuid.UUID]string, error) {
	branches, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[uuid.UUID]string, len(branches))
	for _, b := range branches {
		if b.Code != "" {
			m[b.ID] = strings.ToUpper(b.Code)
		}
	}
	return m, nil
}

func (r *branchRepo) Resolve(ctx context.Context, filter, defaultCode string) (BranchSel, error) {
	f := strings.TrimSpace(filter)

	if strings.EqualFold(f, "all") {
		return BranchSel{All: true, Code: "ALL"}, nil
	}
	if f == "" || strings.EqualFold(f, defaultCode) {
		sel := BranchSel{IncludeNull: true, Code: strings.ToUpper(defaultCode)}
		if b, err := r.FindByCode(ctx, defaultCode); err == nil {
			sel.ID = &b.ID
		}
		return sel, nil
	}

	if id, err := uuid.Parse(f); err == nil {
		var b model.Branch
		if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return BranchSel{}, ErrBranchNotFound
			}
			return BranchSel{}, err
		}
		return BranchSel{ID: &b.ID, Code: strings.ToUpper(b.Code)}, nil
	}

	b, err := r.FindByCode(ctx, f)
	if err != nil {
		return BranchSel{}, err
	}
	return BranchSel{ID: &b.ID, Code: strings.ToUpper(b.Code)}, nil
}
