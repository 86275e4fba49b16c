package repository

import (
	"context"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	pkgerrors "github.com/ahmed-moohram/elmostqbal-sub002/pkg/errors"
)

// AccountRepository 账号数据访问接口
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	// FindByPhones 在所有手机号别名列中查找等于任一 values 的账号
	// 结果按 created_at, id 排序，保证多个候选时顺序确定
	FindByPhones(ctx context.Context, values []string) ([]model.Account, error)
	ListByRole(ctx context.Context, role string) ([]model.Account, error)
}

type accountRepo struct {
	db *gorm.DB

	mu      sync.RWMutex
	missing map[string]bool // 当前部署中不存在的手机号列
}

// NewAccountRepo 创建 AccountRepository 实例
func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db, missing: make(map[string]bool)}
}

func (r *accountRepo) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByPhones 表结构漂移时（某列不存在）去掉该列重试，而不是直接失败
func (r *accountRepo) FindByPhones(ctx context.Context, values []string) ([]model.Account, error) {
	if len(values) == 0 {
		return nil, nil
	}

	columns := r.availableColumns()
	for len(columns) > 0 {
		accounts, err := r.findByColumns(ctx, columns, values)
		if err == nil {
			return accounts, nil
		}

		col := pkgerrors.MissingColumn(err, columns)
		if col == "" {
			return nil, err
		}
		r.markMissing(col)
		columns = removeColumn(columns, col)
	}

	// 一个手机号列都没有，视为查无此人
	return nil, nil
}

func (r *accountRepo) findByColumns(ctx context.Context, columns, values []string) ([]model.Account, error) {
	conds := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		// col 只来自 model.PhoneColumns 白名单
		conds = append(conds, col+" IN ?")
		args = append(args, values)
	}

	var accounts []model.Account
	err := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where(strings.Join(conds, " OR "), args...).
		Order("created_at ASC, id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) ListByRole(ctx context.Context, role string) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) availableColumns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cols := make([]string, 0, len(model.PhoneColumns))
	for _, c := range model.PhoneColumns {
		if !r.missing[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

func (r *accountRepo) markMissing(col string) {
	r.mu.Lock()
	r.missing[col] = true
	r.mu.Unlock()
}

func removeColumn(columns []string, col string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != col {
			out = append(out, c)
		}
	}
	return out
}
