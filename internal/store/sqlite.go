package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gurukul-ai/backend/internal/model/chat"
	"github.com/gurukul-ai/backend/internal/model/roadmap"
	"github.com/gurukul-ai/backend/internal/model/task"
	"github.com/gurukul-ai/backend/internal/model/tutor"
	"github.com/gurukul-ai/backend/internal/model/user"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for better read concurrency under the chat workload.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		subscription_tier TEXT NOT NULL DEFAULT 'free',
		student_id TEXT,
		tutors_created INTEGER DEFAULT 0,
		current_streak INTEGER DEFAULT 0,
		longest_streak INTEGER DEFAULT 0,
		last_activity INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tutors (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		avatar TEXT,
		name TEXT NOT NULL,
		subject TEXT NOT NULL,
		personality TEXT NOT NULL DEFAULT 'default',
		learning_style TEXT NOT NULL,
		interests_json TEXT,
		pace TEXT NOT NULL DEFAULT 'medium',
		language TEXT NOT NULL DEFAULT 'English',
		student_summary TEXT,
		roadmap_id TEXT,
		chat_id TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tutors_student ON tutors(student_id);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		tutor_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		estimated_time TEXT,
		status TEXT NOT NULL DEFAULT 'Pending',
		year TEXT NOT NULL,
		month TEXT NOT NULL,
		day TEXT NOT NULL,
		time TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_user_date ON tasks(user_id, year, month, day);

	CREATE TABLE IF NOT EXISTS roadmaps (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		deadline INTEGER NOT NULL,
		plan_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		user_id TEXT NOT NULL,
		student_id TEXT,
		tutor_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id, updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		chat_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_type TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new account record.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, subscription_tier,
		                   student_id, tutors_created, current_streak, longest_streak,
		                   last_activity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), string(u.SubscriptionTier),
		nullable(u.StudentID), u.TutorsCreated, u.CurrentStreak, u.LongestStreak,
		u.LastActivity.Unix(), u.CreatedAt.Unix(), u.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	query := userSelect + ` WHERE id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	query := userSelect + ` WHERE email = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

const userSelect = `
	SELECT id, name, email, password_hash, role, subscription_tier, student_id,
	       tutors_created, current_streak, longest_streak, last_activity,
	       created_at, updated_at
	FROM users`

func (s *SQLiteStore) scanUser(row *sql.Row) (*user.User, error) {
	var u user.User
	var role, tier string
	var studentID sql.NullString
	var lastActivity, createdAt, updatedAt int64

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &tier, &studentID,
		&u.TutorsCreated, &u.CurrentStreak, &u.LongestStreak, &lastActivity,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	u.Role = user.Role(role)
	u.SubscriptionTier = user.Tier(tier)
	u.StudentID = studentID.String
	u.LastActivity = time.Unix(lastActivity, 0)
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}

// UpdateStreak writes the streak counters and activity stamp for a student.
func (s *SQLiteStore) UpdateStreak(ctx context.Context, userID string, current, longest int, lastActivity time.Time) error {
	query := `
		UPDATE users SET current_streak = ?, longest_streak = ?, last_activity = ?, updated_at = ?
		WHERE id = ?`

	_, err := s.db.ExecContext(ctx, query, current, longest, lastActivity.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

// ResetStaleStreaks zeroes the current streak of every student whose last
// activity predates the cutoff. Returns the number of students affected.
func (s *SQLiteStore) ResetStaleStreaks(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE users SET current_streak = 0, updated_at = ?
		WHERE role = 'student' AND current_streak > 0 AND last_activity < ?`

	res, err := s.db.ExecContext(ctx, query, time.Now().Unix(), before.Unix())
	if err != nil {
		return 0, fmt.Errorf("reset stale streaks: %w", err)
	}
	return res.RowsAffected()
}

// CreateTutor inserts a tutor persona.
func (s *SQLiteStore) CreateTutor(ctx context.Context, t *tutor.Tutor) error {
	interests, err := json.Marshal(t.Interests)
	if err != nil {
		return fmt.Errorf("marshal interests: %w", err)
	}

	query := `
		INSERT INTO tutors (id, student_id, avatar, name, subject, personality,
		                    learning_style, interests_json, pace, language,
		                    student_summary, roadmap_id, chat_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		t.ID, t.StudentID, t.Avatar, t.Name, t.Subject, string(t.Personality),
		string(t.LearningStyle), string(interests), string(t.Pace), t.Language,
		nullable(t.StudentSummary), nullable(t.RoadmapID), nullable(t.ChatID),
		t.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert tutor: %w", err)
	}
	return nil
}

// GetTutor retrieves a tutor by ID.
func (s *SQLiteStore) GetTutor(ctx context.Context, id string) (*tutor.Tutor, error) {
	query := tutorSelect + ` WHERE id = ?`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query tutor: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanTutor(rows)
}

// ListTutorsByStudent returns every tutor created for a student.
func (s *SQLiteStore) ListTutorsByStudent(ctx context.Context, studentID string) ([]*tutor.Tutor, error) {
	query := tutorSelect + ` WHERE student_id = ? ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("query tutors: %w", err)
	}
	defer rows.Close()

	var tutors []*tutor.Tutor
	for rows.Next() {
		t, err := scanTutor(rows)
		if err != nil {
			return nil, err
		}
		tutors = append(tutors, t)
	}
	return tutors, rows.Err()
}

const tutorSelect = `
	SELECT id, student_id, avatar, name, subject, personality, learning_style,
	       interests_json, pace, language, student_summary, roadmap_id, chat_id,
	       created_at
	FROM tutors`

func scanTutor(rows *sql.Rows) (*tutor.Tutor, error) {
	var t tutor.Tutor
	var personality, style, pace string
	var interestsJSON, summary, roadmapID, chatID sql.NullString
	var createdAt int64

	err := rows.Scan(
		&t.ID, &t.StudentID, &t.Avatar, &t.Name, &t.Subject, &personality, &style,
		&interestsJSON, &pace, &t.Language, &summary, &roadmapID, &chatID, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan tutor row: %w", err)
	}

	t.Personality = tutor.Personality(personality)
	t.LearningStyle = tutor.LearningStyle(style)
	t.Pace = tutor.Pace(pace)
	t.StudentSummary = summary.String
	t.RoadmapID = roadmapID.String
	t.ChatID = chatID.String
	t.CreatedAt = time.Unix(createdAt, 0)

	if interestsJSON.Valid && interestsJSON.String != "" {
		if err := json.Unmarshal([]byte(interestsJSON.String), &t.Interests); err != nil {
			return nil, fmt.Errorf("unmarshal interests: %w", err)
		}
	}
	return &t, nil
}

// SetTutorRoadmap links a confirmed roadmap to its tutor.
func (s *SQLiteStore) SetTutorRoadmap(ctx context.Context, tutorID, roadmapID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tutors SET roadmap_id = ? WHERE id = ?`, roadmapID, tutorID)
	if err != nil {
		return fmt.Errorf("set tutor roadmap: %w", err)
	}
	return nil
}

// SetTutorChat records the tutor's primary chat once it exists.
func (s *SQLiteStore) SetTutorChat(ctx context.Context, tutorID, chatID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tutors SET chat_id = ? WHERE id = ?`, chatID, tutorID)
	if err != nil {
		return fmt.Errorf("set tutor chat: %w", err)
	}
	return nil
}

// CreateTask inserts a task record.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *task.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, tutor_id, title, description, estimated_time,
		                   status, year, month, day, time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.TutorID, t.Title, t.Description, t.EstimatedTime,
		string(t.Status), t.Year, t.Month, t.Day, t.Time,
		t.CreatedAt.Unix(), t.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*task.Task, error) {
	query := taskSelect + ` WHERE id = ?`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanTask(rows)
}

// ListTasks returns tasks matching the filter, newest day first.
func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error) {
	var conds []string
	var args []any

	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.TutorID != "" {
		conds = append(conds, "tutor_id = ?")
		args = append(args, filter.TutorID)
	}
	if filter.Date != nil {
		conds = append(conds, "year = ?", "month = ?", "day = ?")
		args = append(args, filter.Date.Year, filter.Date.Month, filter.Date.Day)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := taskSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY year DESC, month DESC, day DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

const taskSelect = `
	SELECT id, user_id, tutor_id, title, description, estimated_time, status,
	       year, month, day, time, created_at, updated_at
	FROM tasks`

func scanTask(rows *sql.Rows) (*task.Task, error) {
	var t task.Task
	var status string
	var description, estimated, tm sql.NullString
	var createdAt, updatedAt int64

	err := rows.Scan(
		&t.ID, &t.UserID, &t.TutorID, &t.Title, &description, &estimated, &status,
		&t.Year, &t.Month, &t.Day, &tm, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan task row: %w", err)
	}

	t.Description = description.String
	t.EstimatedTime = estimated.String
	t.Time = tm.String
	t.Status = task.Status(status)
	t.CreatedAt = time.Unix(createdAt, 0)
	t.UpdatedAt = time.Unix(updatedAt, 0)
	return &t, nil
}

// UpdateTaskStatus moves a task to a new lifecycle state.
func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, id string, status task.Status) error {
	query := `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, string(status), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

// CreateRoadmap persists a roadmap document; the plan body is stored as JSON.
func (s *SQLiteStore) CreateRoadmap(ctx context.Context, r *roadmap.Roadmap) error {
	plan, err := json.Marshal(r.Plan)
	if err != nil {
		return fmt.Errorf("marshal roadmap plan: %w", err)
	}

	query := `INSERT INTO roadmaps (id, subject, deadline, plan_json, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, r.ID, r.Subject, r.Deadline.Unix(), string(plan), r.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert roadmap: %w", err)
	}
	return nil
}

// GetRoadmap retrieves a roadmap document by ID.
func (s *SQLiteStore) GetRoadmap(ctx context.Context, id string) (*roadmap.Roadmap, error) {
	query := `SELECT id, subject, deadline, plan_json, created_at FROM roadmaps WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)

	var r roadmap.Roadmap
	var planJSON string
	var deadline, createdAt int64

	err := row.Scan(&r.ID, &r.Subject, &deadline, &planJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan roadmap row: %w", err)
	}

	if err := json.Unmarshal([]byte(planJSON), &r.Plan); err != nil {
		return nil, fmt.Errorf("unmarshal roadmap plan: %w", err)
	}
	r.Deadline = time.Unix(deadline, 0)
	r.CreatedAt = time.Unix(createdAt, 0)
	return &r, nil
}

// CreateChat inserts a chat record.
func (s *SQLiteStore) CreateChat(ctx context.Context, c *chat.Chat) error {
	query := `
		INSERT INTO chats (id, name, user_id, student_id, tutor_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.UserID, nullable(c.StudentID), c.TutorID,
		c.CreatedAt.Unix(), c.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

// GetChat retrieves a chat by ID.
func (s *SQLiteStore) GetChat(ctx context.Context, id string) (*chat.Chat, error) {
	query := `SELECT id, name, user_id, student_id, tutor_id, created_at, updated_at FROM chats WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)

	var c chat.Chat
	var studentID sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&c.ID, &c.Name, &c.UserID, &studentID, &c.TutorID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat row: %w", err)
	}

	c.StudentID = studentID.String
	c.CreatedAt = time.Unix(createdAt, 0)
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return &c, nil
}

// ListChatsByUser returns a user's chats, most recently active first.
func (s *SQLiteStore) ListChatsByUser(ctx context.Context, userID string) ([]*chat.Chat, error) {
	query := `
		SELECT id, name, user_id, student_id, tutor_id, created_at, updated_at
		FROM chats WHERE user_id = ? ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	var chats []*chat.Chat
	for rows.Next() {
		var c chat.Chat
		var studentID sql.NullString
		var createdAt, updatedAt int64
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID, &studentID, &c.TutorID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan chat row: %w", err)
		}
		c.StudentID = studentID.String
		c.CreatedAt = time.Unix(createdAt, 0)
		c.UpdatedAt = time.Unix(updatedAt, 0)
		chats = append(chats, &c)
	}
	return chats, rows.Err()
}

// TouchChat bumps a chat's updated_at stamp.
func (s *SQLiteStore) TouchChat(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE chats SET updated_at = ? WHERE id = ?`, time.Now().Unix(), chatID)
	if err != nil {
		return fmt.Errorf("touch chat: %w", err)
	}
	return nil
}

// AppendMessage stores one conversation turn.
func (s *SQLiteStore) AppendMessage(ctx context.Context, m *chat.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, sender_type, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.ChatID, m.SenderID, string(m.SenderType), m.Content, m.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns a chat transcript in chronological order.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID string) ([]*chat.Message, error) {
	query := `
		SELECT id, chat_id, sender_id, sender_type, content, created_at
		FROM messages WHERE chat_id = ? ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*chat.Message
	for rows.Next() {
		var m chat.Message
		var senderType string
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &senderType, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.SenderType = chat.SenderType(senderType)
		m.CreatedAt = time.Unix(createdAt, 0)
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// ClearMessages deletes a chat's transcript.
func (s *SQLiteStore) ClearMessages(ctx context.Context, chatID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
