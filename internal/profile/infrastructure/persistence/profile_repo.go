package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aawohq/aawo/internal/profile/domain"
	scheduling "github.com/aawohq/aawo/internal/scheduling/domain"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
)

// ProfileRepository persists the single user profile as row id 1.
// Schedules are stored as JSON text.
type ProfileRepository struct {
	conn database.Connection
}

// NewProfileRepository creates the repository.
func NewProfileRepository(conn database.Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

var _ domain.Repository = (*ProfileRepository)(nil)

func (r *ProfileRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *ProfileRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Load returns the saved profile, or the default profile when none was
// saved yet.
func (r *ProfileRepository) Load(ctx context.Context) (*domain.Profile, error) {
	query := r.rebind(`
		SELECT timezone, work_windows, lunch, deep_work, slot_minutes, autonomy, updated_at
		FROM profiles WHERE id = 1`)

	var (
		timezone              string
		workWindows           string
		lunch, deepWork       string
		slotMinutes           int
		autonomy, updatedAt   string
	)
	err := r.executor(ctx).QueryRow(ctx, query).Scan(
		&timezone, &workWindows, &lunch, &deepWork, &slotMinutes, &autonomy, &updatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return domain.DefaultProfile(), nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	profile := &domain.Profile{
		Timezone:    timezone,
		SlotMinutes: slotMinutes,
		Autonomy:    domain.Autonomy(autonomy),
	}
	if workWindows != "" && workWindows != "{}" {
		if err := json.Unmarshal([]byte(workWindows), &profile.WorkWindows); err != nil {
			return nil, fmt.Errorf("decode work_windows: %w", err)
		}
	}
	if lunch != "" && lunch != "{}" && lunch != "null" {
		var clock scheduling.ClockRange
		if err := json.Unmarshal([]byte(lunch), &clock); err != nil {
			return nil, fmt.Errorf("decode lunch: %w", err)
		}
		profile.Lunch = &clock
	}
	if deepWork != "" && deepWork != "[]" {
		if err := json.Unmarshal([]byte(deepWork), &profile.DeepWork); err != nil {
			return nil, fmt.Errorf("decode deep_work: %w", err)
		}
	}
	profile.UpdatedAt, err = database.ParseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	return profile, nil
}

// Save writes the profile, replacing any previous one.
func (r *ProfileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	workWindows, err := json.Marshal(profile.WorkWindows)
	if err != nil {
		return fmt.Errorf("encode work_windows: %w", err)
	}
	lunch := []byte("{}")
	if profile.Lunch != nil {
		lunch, err = json.Marshal(profile.Lunch)
		if err != nil {
			return fmt.Errorf("encode lunch: %w", err)
		}
	}
	deepWork, err := json.Marshal(profile.DeepWork)
	if err != nil {
		return fmt.Errorf("encode deep_work: %w", err)
	}

	query := r.rebind(`
		INSERT INTO profiles (id, timezone, work_windows, lunch, deep_work, slot_minutes, autonomy, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			timezone = excluded.timezone,
			work_windows = excluded.work_windows,
			lunch = excluded.lunch,
			deep_work = excluded.deep_work,
			slot_minutes = excluded.slot_minutes,
			autonomy = excluded.autonomy,
			updated_at = excluded.updated_at`)

	_, err = r.executor(ctx).Exec(ctx, query,
		profile.Timezone,
		string(workWindows),
		string(lunch),
		string(deepWork),
		profile.SlotMinutes,
		string(profile.Autonomy),
		database.FormatTime(profile.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
