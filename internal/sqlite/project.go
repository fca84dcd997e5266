package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (id, name, color, description, is_manual, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.Color,
		proj.Description,
		proj.IsManual,
		unix(proj.CreatedAt),
		unix(proj.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

const projectCols = "id, name, color, description, is_manual, created_at, updated_at"

func scanProject(sc scanner) (*project.Project, error) {
	var proj project.Project
	var created, updated int64
	err := sc.Scan(
		&proj.ID,
		&proj.Name,
		&proj.Color,
		&proj.Description,
		&proj.IsManual,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}
	proj.CreatedAt = fromUnix(created)
	proj.UpdatedAt = fromUnix(updated)
	return &proj, nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	proj, err := scanProject(r.db.QueryRowContext(ctx, "SELECT "+projectCols+" FROM projects WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return proj, nil
}

// GetByName retrieves a project by name, ignoring case
func (r *ProjectRepository) GetByName(ctx context.Context, name string) (*project.Project, error) {
	proj, err := scanProject(r.db.QueryRowContext(ctx, "SELECT "+projectCols+" FROM projects WHERE name = ?", name))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project by name: %w", err)
	}
	return proj, nil
}

// List returns all projects with pattern and activity counts
func (r *ProjectRepository) List(ctx context.Context) ([]project.ProjectSummary, error) {
	query := `
		SELECT
			p.id,
			p.name,
			p.color,
			p.description,
			p.is_manual,
			p.created_at,
			(SELECT COUNT(*) FROM project_patterns pp WHERE pp.project_id = p.id) AS pattern_count,
			(SELECT COUNT(*) FROM screenshots WHERE project_id = p.id)
			+ (SELECT COUNT(*) FROM focus_events WHERE project_id = p.id)
			+ (SELECT COUNT(*) FROM shell_commands WHERE project_id = p.id)
			+ (SELECT COUNT(*) FROM git_commits WHERE project_id = p.id)
			+ (SELECT COUNT(*) FROM file_events WHERE project_id = p.id)
			+ (SELECT COUNT(*) FROM browser_visits WHERE project_id = p.id) AS activity_count
		FROM projects p
		ORDER BY p.created_at ASC, p.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var summaries []project.ProjectSummary
	for rows.Next() {
		var summary project.ProjectSummary
		var created int64
		err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Color,
			&summary.Description,
			&summary.IsManual,
			&created,
			&summary.PatternCount,
			&summary.ActivityCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summary.CreatedAt = fromUnix(created)
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return summaries, nil
}

// Update writes the editable project fields
func (r *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	query := `
		UPDATE projects
		SET name = ?, color = ?, description = ?, updated_at = ?
		WHERE id = ?
	`

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, proj.Name, proj.Color, proj.Description, unix(proj.UpdatedAt), proj.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("failed to update project: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return repository.ErrNotFound
		}
		// timeline blocks carry the project name and color
		return bumpLatestWrite(ctx, tx)
	})
}

// linkedTables are every table with a project_id reference that must not dangle.
var linkedTables = []string{
	"screenshots", "focus_events", "shell_commands",
	"git_commits", "file_events", "browser_visits",
}

// Delete removes a project and either clears or moves every reference to it in one transaction.
func (r *ProjectRepository) Delete(ctx context.Context, id string, reassignTo *string) (*project.DeleteResult, error) {
	result := &project.DeleteResult{ProjectID: id, ReassignTo: reassignTo}

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		result.Cleared, result.Reassigned = 0, 0

		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects WHERE id = ?", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check project: %w", err)
		}
		if exists == 0 {
			return repository.ErrNotFound
		}

		if reassignTo != nil {
			n, err := reassignRows(ctx, tx, id, *reassignTo)
			if err != nil {
				return err
			}
			result.Reassigned = n
		} else {
			for _, table := range linkedTables {
				res, err := tx.ExecContext(ctx, "UPDATE "+table+
					" SET project_id = NULL, project_confidence = NULL, project_source = NULL WHERE project_id = ?", id)
				if err != nil {
					return fmt.Errorf("failed to update %s: %w", table, err)
				}
				n, err := res.RowsAffected()
				if err != nil {
					return fmt.Errorf("failed to get rows affected: %w", err)
				}
				result.Cleared += n
			}
		}

		if _, err := tx.ExecContext(ctx, "UPDATE sessions SET project_id = ? WHERE project_id = ?", nullString(reassignTo), id); err != nil {
			return fmt.Errorf("failed to update sessions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return bumpLatestWrite(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type movedRow struct {
	ref          activity.Ref
	activityTime int64
	confidence   sql.NullFloat64
	source       sql.NullString
}

// reassignRows moves every row linked to from onto to and records each move in
// the assignment history. Rows keep their source and confidence.
func reassignRows(ctx context.Context, tx *sql.Tx, from, to string) (int64, error) {
	var moved []movedRow
	for _, t := range activity.AllTypes {
		tbl, err := tableFor(t)
		if err != nil {
			return 0, err
		}
		rows, err := tx.QueryContext(ctx,
			"SELECT id, "+tbl.timeCol+", project_confidence, project_source FROM "+tbl.name+" WHERE project_id = ?", from)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", tbl.name, err)
		}
		for rows.Next() {
			m := movedRow{ref: activity.Ref{Type: t}}
			if err := rows.Scan(&m.ref.ID, &m.activityTime, &m.confidence, &m.source); err != nil {
				rows.Close()
				return 0, fmt.Errorf("failed to scan %s: %w", tbl.name, err)
			}
			moved = append(moved, m)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return 0, fmt.Errorf("error iterating %s rows: %w", tbl.name, err)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE "+tbl.name+" SET project_id = ? WHERE project_id = ?", to, from); err != nil {
			if isForeignKeyViolation(err) {
				return 0, repository.ErrForeignKeyViolation
			}
			return 0, fmt.Errorf("failed to update %s: %w", tbl.name, err)
		}
	}

	now := time.Now()
	for _, m := range moved {
		src := activity.SourceManual
		var prev *activity.Source
		if m.source.Valid {
			src = activity.Source(m.source.String)
			prev = &src
		}
		target, previous := to, from
		w := &assignment.Write{
			Ref:          m.ref,
			ProjectID:    &target,
			Confidence:   floatPtr(m.confidence),
			Source:       src,
			ActivityTime: fromUnix(m.activityTime),
			At:           now,
		}
		if err := recordWrite(ctx, tx, w, &previous, prev); err != nil {
			return 0, err
		}
	}
	return int64(len(moved)), nil
}

const patternCols = "id, project_id, pattern_type, pattern_value, match_type, weight, hit_count, last_used_at, created_at"

func scanPattern(sc scanner) (*project.Pattern, error) {
	var p project.Pattern
	var lastUsed sql.NullInt64
	var created int64
	err := sc.Scan(
		&p.ID,
		&p.ProjectID,
		&p.PatternType,
		&p.PatternValue,
		&p.MatchType,
		&p.Weight,
		&p.HitCount,
		&lastUsed,
		&created,
	)
	if err != nil {
		return nil, err
	}
	p.LastUsedAt = timePtr(lastUsed)
	p.CreatedAt = fromUnix(created)
	return &p, nil
}

func insertPattern(ctx context.Context, q queryer, p *project.Pattern) error {
	query := `
		INSERT INTO project_patterns (` + patternCols + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		p.ID,
		p.ProjectID,
		p.PatternType,
		p.PatternValue,
		p.MatchType,
		p.Weight,
		p.HitCount,
		nullUnix(p.LastUsedAt),
		unix(p.CreatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return repository.ErrConflict
		case isForeignKeyViolation(err):
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create pattern: %w", err)
	}
	return nil
}

// CreatePattern stores a new pattern
func (r *ProjectRepository) CreatePattern(ctx context.Context, p *project.Pattern) error {
	return insertPattern(ctx, r.db, p)
}

// GetPattern retrieves a pattern by ID
func (r *ProjectRepository) GetPattern(ctx context.Context, id string) (*project.Pattern, error) {
	p, err := scanPattern(r.db.QueryRowContext(ctx, "SELECT "+patternCols+" FROM project_patterns WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}
	return p, nil
}

// UpdatePattern replaces a pattern's rule and weight
func (r *ProjectRepository) UpdatePattern(ctx context.Context, p *project.Pattern) error {
	query := `
		UPDATE project_patterns
		SET pattern_type = ?, pattern_value = ?, match_type = ?, weight = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query, p.PatternType, p.PatternValue, p.MatchType, p.Weight, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to update pattern: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeletePattern removes a pattern
func (r *ProjectRepository) DeletePattern(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM project_patterns WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) listPatterns(ctx context.Context, where string, args ...any) ([]project.Pattern, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+patternCols+" FROM project_patterns"+where+" ORDER BY project_id, id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer rows.Close()

	var patterns []project.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pattern rows: %w", err)
	}
	return patterns, nil
}

// ListPatterns returns the patterns of one project
func (r *ProjectRepository) ListPatterns(ctx context.Context, projectID string) ([]project.Pattern, error) {
	return r.listPatterns(ctx, " WHERE project_id = ?", projectID)
}

// ListAllPatterns returns every stored pattern
func (r *ProjectRepository) ListAllPatterns(ctx context.Context) ([]project.Pattern, error) {
	return r.listPatterns(ctx, "")
}

// UpsertLearnedPattern inserts p, or grows the weight of the identical rule that already exists.
func (r *ProjectRepository) UpsertLearnedPattern(ctx context.Context, p *project.Pattern) (*project.Pattern, error) {
	var stored *project.Pattern
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanPattern(tx.QueryRowContext(ctx,
			"SELECT "+patternCols+" FROM project_patterns WHERE project_id = ? AND pattern_type = ? AND pattern_value = ? AND match_type = ?",
			p.ProjectID, p.PatternType, p.PatternValue, p.MatchType))
		if err == sql.ErrNoRows {
			fresh := *p
			if fresh.ID == "" {
				fresh.ID = uuid.NewString()
			}
			fresh.Weight = project.ClampWeight(fresh.Weight)
			if err := insertPattern(ctx, tx, &fresh); err != nil {
				return err
			}
			stored = &fresh
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find learned pattern: %w", err)
		}

		if existing.Weight < project.MaxWeight {
			existing.Weight = project.ClampWeight(existing.Weight * project.LearnedGrowth)
			if _, err := tx.ExecContext(ctx, "UPDATE project_patterns SET weight = ? WHERE id = ?", existing.Weight, existing.ID); err != nil {
				return fmt.Errorf("failed to grow pattern weight: %w", err)
			}
		}
		stored = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}
