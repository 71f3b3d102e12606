package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photolab_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type photoPack struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	Slug           string    `db:"slug"`
	Gender         string    `db:"gender"`
	PreviewURL     string    `db:"preview_url"`
	SortOrder      int       `db:"sort_order"`
	IsActive       bool      `db:"is_active"`
	OwnerPartnerID *int64    `db:"owner_partner_id"`
	CreatedAt      time.Time `db:"created_at"`
}

func (p *photoPack) toModel() *model.PhotoPack {
	return &model.PhotoPack{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		Gender:         p.Gender,
		PreviewURL:     p.PreviewURL,
		SortOrder:      p.SortOrder,
		IsActive:       p.IsActive,
		OwnerPartnerID: p.OwnerPartnerID,
		CreatedAt:      p.CreatedAt,
	}
}

var packColumns = []string{
	"id", "title", "slug", "gender", "preview_url",
	"sort_order", "is_active", "owner_partner_id", "created_at",
}

func (r *Repository) CreatePack(ctx context.Context, p *model.PhotoPack) error {
	query, args, err := squirrel.
		Insert("photo_packs").
		SetMap(map[string]interface{}{
			"id":               p.ID,
			"title":            p.Title,
			"slug":             p.Slug,
			"gender":           p.Gender,
			"preview_url":      p.PreviewURL,
			"sort_order":       p.SortOrder,
			"is_active":        p.IsActive,
			"owner_partner_id": p.OwnerPartnerID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build pack insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert pack: %w", err)
	}

	return nil
}

func (r *Repository) UpdatePack(ctx context.Context, p *model.PhotoPack) error {
	query, args, err := squirrel.
		Update("photo_packs").
		SetMap(map[string]interface{}{
			"title":       p.Title,
			"slug":        p.Slug,
			"gender":      p.Gender,
			"preview_url": p.PreviewURL,
			"sort_order":  p.SortOrder,
			"is_active":   p.IsActive,
		}).
		Where(squirrel.Eq{"id": p.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build pack update query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update pack: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeletePack removes a pack, or only disables it when generation jobs still
// reference it (the job history has to keep resolving its pack).
func (r *Repository) DeletePack(ctx context.Context, id string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		existsQuery, existsArgs, err := squirrel.
			Select("COUNT(*)").
			From("generation_jobs").
			Where(squirrel.Eq{"pack_id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build job count query: %w", err)
		}

		var jobs int
		err = tx.GetContext(ctx, &jobs, existsQuery, existsArgs...)
		if err != nil {
			return fmt.Errorf("failed to count jobs: %w", err)
		}

		if jobs > 0 {
			disableQuery, disableArgs, err := squirrel.
				Update("photo_packs").
				Set("is_active", false).
				Where(squirrel.Eq{"id": id}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build pack disable query: %w", err)
			}

			_, err = tx.ExecContext(ctx, disableQuery, disableArgs...)
			if err != nil {
				return fmt.Errorf("failed to disable pack: %w", err)
			}

			return ErrPackInUse
		}

		promptsQuery, promptsArgs, err := squirrel.
			Delete("pack_prompts").
			Where(squirrel.Eq{"pack_id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build prompts delete query: %w", err)
		}

		_, err = tx.ExecContext(ctx, promptsQuery, promptsArgs...)
		if err != nil {
			return fmt.Errorf("failed to delete prompts: %w", err)
		}

		deleteQuery, deleteArgs, err := squirrel.
			Delete("photo_packs").
			Where(squirrel.Eq{"id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build pack delete query: %w", err)
		}

		res, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...)
		if err != nil {
			return fmt.Errorf("failed to delete pack: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrNotFound
		}

		return nil
	})
}

func (r *Repository) ListPacks(ctx context.Context, activeOnly bool) ([]*model.PhotoPack, error) {
	builder := squirrel.
		Select(packColumns...).
		From("photo_packs").
		OrderBy("sort_order ASC", "created_at ASC")

	if activeOnly {
		builder = builder.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build packs query: %w", err)
	}

	var rows []photoPack
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list packs: %w", err)
	}

	out := make([]*model.PhotoPack, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}

	return out, nil
}

func (r *Repository) ListPacksByOwner(ctx context.Context, partnerID int64) ([]*model.PhotoPack, error) {
	query, args, err := squirrel.
		Select(packColumns...).
		From("photo_packs").
		Where(squirrel.Eq{"owner_partner_id": partnerID}).
		OrderBy("sort_order ASC", "created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build owner packs query: %w", err)
	}

	var rows []photoPack
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner packs: %w", err)
	}

	out := make([]*model.PhotoPack, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}

	return out, nil
}

func (r *Repository) GetPackByID(ctx context.Context, id string) (*model.PhotoPack, error) {
	query, args, err := squirrel.
		Select(packColumns...).
		From("photo_packs").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pack select query: %w", err)
	}

	var p photoPack
	err = r.db.GetContext(ctx, &p, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pack: %w", err)
	}

	pack := p.toModel()

	prompts, err := r.ListPackPrompts(ctx, id)
	if err != nil {
		return nil, err
	}
	pack.Prompts = prompts

	return pack, nil
}

func (r *Repository) ListPackPrompts(ctx context.Context, packID string) ([]model.PackPrompt, error) {
	query, args, err := squirrel.
		Select("id", "pack_id", "prompt_text", "negative_prompt", "style_tags", "sort_order").
		From("pack_prompts").
		Where(squirrel.Eq{"pack_id": packID}).
		OrderBy("sort_order ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build prompts query: %w", err)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []model.PackPrompt
	for rows.Next() {
		var p model.PackPrompt
		var tags pq.StringArray
		err = rows.Scan(&p.ID, &p.PackID, &p.PromptText, &p.NegativePrompt, &tags, &p.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		p.StyleTags = tags
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompts: %w", err)
	}

	return prompts, nil
}

func (r *Repository) CreatePackPrompt(ctx context.Context, p *model.PackPrompt) error {
	query, args, err := squirrel.
		Insert("pack_prompts").
		SetMap(map[string]interface{}{
			"id":              p.ID,
			"pack_id":         p.PackID,
			"prompt_text":     p.PromptText,
			"negative_prompt": p.NegativePrompt,
			"style_tags":      pq.Array(p.StyleTags),
			"sort_order":      p.SortOrder,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build prompt insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert prompt: %w", err)
	}

	return nil
}

func (r *Repository) UpdatePackPrompt(ctx context.Context, p *model.PackPrompt) error {
	query, args, err := squirrel.
		Update("pack_prompts").
		SetMap(map[string]interface{}{
			"prompt_text":     p.PromptText,
			"negative_prompt": p.NegativePrompt,
			"style_tags":      pq.Array(p.StyleTags),
			"sort_order":      p.SortOrder,
		}).
		Where(squirrel.Eq{"id": p.ID, "pack_id": p.PackID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build prompt update query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update prompt: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) DeletePackPrompt(ctx context.Context, packID, promptID string) error {
	query, args, err := squirrel.
		Delete("pack_prompts").
		Where(squirrel.Eq{"id": promptID, "pack_id": packID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build prompt delete query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
