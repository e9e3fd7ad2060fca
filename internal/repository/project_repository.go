package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aperture/api/internal/authz"
	"aperture/api/internal/models"
)

var ErrProjectNotFound = errors.New("project not found")

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (models.Project, error) {
	const query = `
		SELECT id, title, client_id, status, created_at, updated_at
		FROM projects WHERE id = $1
	`

	var project models.Project
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Title,
		&project.ClientID,
		&project.Status,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, ErrProjectNotFound
		}
		return models.Project{}, err
	}
	return project, nil
}

// GetProjectAccess implements authz.ProjectAccessStore.
func (r *ProjectRepository) GetProjectAccess(ctx context.Context, projectID string) (models.ProjectAccess, error) {
	const query = `SELECT id, client_id FROM projects WHERE id = $1`

	var access models.ProjectAccess
	if err := r.pool.QueryRow(ctx, query, projectID).Scan(&access.ProjectID, &access.ClientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ProjectAccess{}, authz.ErrProjectNotFound
		}
		return models.ProjectAccess{}, err
	}

	const memberQuery = `SELECT user_id FROM project_members WHERE project_id = $1`
	rows, err := r.pool.Query(ctx, memberQuery, projectID)
	if err != nil {
		return models.ProjectAccess{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return models.ProjectAccess{}, err
		}
		access.MemberIDs = append(access.MemberIDs, memberID)
	}
	return access, rows.Err()
}

// ListVisible returns the projects a user may see without loading each
// one through the access check: all of them for admins, own projects
// for clients, assigned projects for photographers.
func (r *ProjectRepository) ListVisible(ctx context.Context, session *models.Session, limit int, offset int) ([]models.Project, error) {
	if authz.IsAdmin(session) {
		const query = `
			SELECT id, title, client_id, status, created_at, updated_at
			FROM projects
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		return r.queryProjects(ctx, query, limit, offset)
	}

	const query = `
		SELECT DISTINCT p.id, p.title, p.client_id, p.status, p.created_at, p.updated_at
		FROM projects p
		LEFT JOIN project_members pm ON pm.project_id = p.id
		WHERE p.client_id = $1 OR pm.user_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryProjects(ctx, query, session.UserID, limit, offset)
}

func (r *ProjectRepository) queryProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var project models.Project
		if err := rows.Scan(
			&project.ID,
			&project.Title,
			&project.ClientID,
			&project.Status,
			&project.CreatedAt,
			&project.UpdatedAt,
		); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, projectID string, status models.ProjectStatus) error {
	const query = `UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, projectID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

var ErrAssetNotFound = errors.New("asset not found")

func (r *ProjectRepository) ListAssets(ctx context.Context, projectID string) ([]models.Asset, error) {
	const query = `
		SELECT id, project_id, object_key, file_name, size_bytes, created_at
		FROM assets
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var asset models.Asset
		if err := rows.Scan(
			&asset.ID,
			&asset.ProjectID,
			&asset.ObjectKey,
			&asset.FileName,
			&asset.SizeBytes,
			&asset.CreatedAt,
		); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (r *ProjectRepository) GetAsset(ctx context.Context, projectID string, assetID string) (models.Asset, error) {
	const query = `
		SELECT id, project_id, object_key, file_name, size_bytes, created_at
		FROM assets
		WHERE id = $1 AND project_id = $2
	`

	var asset models.Asset
	if err := r.pool.QueryRow(ctx, query, assetID, projectID).Scan(
		&asset.ID,
		&asset.ProjectID,
		&asset.ObjectKey,
		&asset.FileName,
		&asset.SizeBytes,
		&asset.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Asset{}, ErrAssetNotFound
		}
		return models.Asset{}, err
	}
	return asset, nil
}
