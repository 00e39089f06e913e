package borrower

import (
	"context"
	"fmt"
	"strings"

	"github.com/washa/backend/internal/money"
)

const searchLimit = 10

type Page struct {
	Items []Entity `json:"borrowers"`
	Total int64    `json:"total"`
	Page  int32    `json:"page"`
	Pages int64    `json:"pages"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Entity, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	income, ok := money.Normalize(in.MonthlyIncome)
	if in.FullName == "" || in.Phone == "" || !ok || income.IsNegative() {
		return nil, fmt.Errorf("invalid_borrower_input")
	}
	in.MonthlyIncome = income
	return s.repo.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id string) (*Entity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("missing_borrower_id")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, phone, name string) ([]Entity, error) {
	phone = strings.TrimSpace(phone)
	name = strings.TrimSpace(name)
	if phone == "" && name == "" {
		return nil, fmt.Errorf("missing_search_term")
	}
	return s.repo.Search(ctx, SearchFilter{Phone: phone, Name: name, Limit: searchLimit})
}

func (s *Service) List(ctx context.Context, page, limit int32) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	items, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return &Page{Items: items, Total: total, Page: page, Pages: pages}, nil
}
