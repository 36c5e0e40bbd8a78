package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/garyjia/school-payroll/internal/application/port"
	"github.com/garyjia/school-payroll/internal/domain/entity"
	"github.com/garyjia/school-payroll/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// StaffRepository reads the staff table and implements port.StaffDirectory
type StaffRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStaffRepository creates a new staff directory backed by sqlite
func NewStaffRepository(db *sql.DB, logger *zap.Logger) *StaffRepository {
	return &StaffRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a staff row. Used for seeding; the directory is otherwise read-only.
func (r *StaffRepository) Create(ctx context.Context, s *entity.Staff) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO staff (tenant_id, name, role, is_active, profile_department) VALUES (?, ?, ?, ?, ?)`,
		s.TenantID, s.Name, s.Role, s.IsActive, s.ProfileDepartment)
	if err != nil {
		r.logger.Error("Failed to create staff", zap.String("name", s.Name), zap.Error(err))
		return fmt.Errorf("failed to create staff: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	s.ID = id
	return nil
}

// GetStaff returns the tenant's staff among ids; missing ids are skipped
func (r *StaffRepository) GetStaff(ctx context.Context, tenantID string, ids []int64) ([]*entity.Staff, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, tenantID)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := `
		SELECT id, tenant_id, name, role, is_active, profile_department
		FROM staff
		WHERE tenant_id = ? AND id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY id ASC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get staff", zap.Int("count", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	defer rows.Close()

	var staff []*entity.Staff
	for rows.Next() {
		var s entity.Staff
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.Role, &s.IsActive, &s.ProfileDepartment); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, &s)
	}
	return staff, rows.Err()
}

// Verify interface compliance
var _ port.StaffDirectory = (*StaffRepository)(nil)
