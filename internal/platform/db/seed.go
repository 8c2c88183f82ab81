package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"staffhub/internal/domain/auth"
	"staffhub/internal/domain/leave"
	"staffhub/internal/platform/config"
)

// Seed is idempotent: every step checks before inserting, so it can run on
// every boot.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensurePermissions(ctx, pool); err != nil {
		return err
	}

	roleIDs, err := ensureRoles(ctx, pool)
	if err != nil {
		return err
	}
	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return err
	}
	if err := ensureLeavePolicies(ctx, pool); err != nil {
		return err
	}
	if err := ensurePayrollSettings(ctx, pool); err != nil {
		return err
	}
	return ensureAdminUser(ctx, pool, roleIDs[auth.RoleHR], cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, perm := range auth.DefaultPermissions {
		if _, err := pool.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm); err != nil {
			return err
		}
	}
	return nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName := range auth.RolePermissions {
		var id string
		err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", roleName).Scan(&id)
		if err == nil {
			roleIDs[roleName] = id
			continue
		}
		if err := pool.QueryRow(ctx, "INSERT INTO roles (name) VALUES ($1) RETURNING id", roleName).Scan(&id); err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]string) error {
	permMap := map[string]string{}
	rows, err := pool.Query(ctx, "SELECT id, key FROM permissions")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		permMap[key] = id
	}

	for roleName, perms := range auth.RolePermissions {
		roleID := roleIDs[roleName]
		for _, permKey := range perms {
			permID, ok := permMap[permKey]
			if !ok {
				return errors.New("permission not found: " + permKey)
			}
			if _, err := pool.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleID, permID); err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureLeavePolicies(ctx context.Context, pool *pgxpool.Pool) error {
	for _, policy := range leave.DefaultPolicies {
		if _, err := pool.Exec(ctx, `
      INSERT INTO leave_policies (type, max_days_per_year, is_statutory, deducts_from_annual, description)
      VALUES ($1,$2,$3,$4,$5)
      ON CONFLICT (type) DO NOTHING
    `, policy.Type, policy.MaxDaysPerYear, policy.IsStatutory, policy.DeductsFromAnnual, policy.Description); err != nil {
			return err
		}
	}
	return nil
}

func ensurePayrollSettings(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
    INSERT INTO payroll_settings (
      id, working_days_per_month, working_hours_per_day, overtime_multiplier,
      currency, pension_enabled, pension_percentage, paye_enabled,
      tax_credit_monthly, rounding_decimals, tax_brackets
    ) VALUES (1, 21.67, 8, 1.5, 'USD', false, 0, false, 0, 2, '[{"min":0,"max":null,"rate":0}]')
    ON CONFLICT (id) DO NOTHING
  `)
	return err
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, roleID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return pool.QueryRow(ctx, "INSERT INTO users (email, password_hash, role_id) VALUES ($1, $2, $3) RETURNING id", email, hash, roleID).Scan(&id)
}
