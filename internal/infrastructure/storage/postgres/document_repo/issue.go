package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/documents/issue"
	"stockyard/internal/infrastructure/storage/postgres"
)

const (
	goodsIssuesTable     = "doc_goods_issues"
	goodsIssueLinesTable = "doc_goods_issue_lines"
)

var issueLineCols = []string{
	"line_id", "line_no", "product_id", "location_id", "quantity",
}

// GoodsIssueRepo implements issue.Repository.
type GoodsIssueRepo struct {
	*BaseDocumentRepo[*issue.GoodsIssue]
}

// NewGoodsIssueRepo creates a new goods issue repository.
func NewGoodsIssueRepo(txManager *postgres.TxManager) *GoodsIssueRepo {
	return &GoodsIssueRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			goodsIssuesTable,
			postgres.ExtractDBColumns[issue.GoodsIssue](),
			func() *issue.GoodsIssue { return &issue.GoodsIssue{} },
		),
	}
}

// GetForUpdate retrieves the issue with a row lock, lines included.
func (r *GoodsIssueRepo) GetForUpdate(ctx context.Context, docID id.ID) (*issue.GoodsIssue, error) {
	doc, err := r.BaseDocumentRepo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := r.GetLines(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines

	return doc, nil
}

// GetLines retrieves lines for a goods issue.
func (r *GoodsIssueRepo) GetLines(ctx context.Context, docID id.ID) ([]issue.Line, error) {
	q := r.Builder().
		Select(issueLineCols...).
		From(goodsIssueLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []issue.Line
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for a goods issue (delete existing + insert new).
func (r *GoodsIssueRepo) SaveLines(ctx context.Context, docID id.ID, lines []issue.Line) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + goodsIssueLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(goodsIssueLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "location_id", "quantity")

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ProductID,
			line.LocationID, line.Quantity,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ issue.Repository = (*GoodsIssueRepo)(nil)
