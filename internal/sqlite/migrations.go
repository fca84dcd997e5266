package sqlite

// migrations are applied in order; the index+1 of the last applied one is stored in user_version.
var migrations = []string{
	`
CREATE TABLE projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL COLLATE NOCASE UNIQUE,
    color TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_manual INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE project_patterns (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    pattern_type TEXT NOT NULL CHECK(pattern_type IN ('app', 'window-title', 'git-repo', 'domain', 'file-path', 'branch')),
    pattern_value TEXT NOT NULL,
    match_type TEXT NOT NULL CHECK(match_type IN ('exact', 'contains', 'prefix', 'suffix', 'regex', 'glob')),
    weight REAL NOT NULL,
    hit_count INTEGER NOT NULL DEFAULT 0,
    last_used_at INTEGER,
    created_at INTEGER NOT NULL,
    UNIQUE (project_id, pattern_type, pattern_value, match_type),
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);
CREATE INDEX idx_patterns_project ON project_patterns(project_id);

CREATE TABLE sessions (
    id TEXT PRIMARY KEY,
    start_time INTEGER NOT NULL,
    end_time INTEGER,
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    screenshot_count INTEGER NOT NULL DEFAULT 0,
    summary_id TEXT,
    project_id TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL
);
CREATE INDEX idx_sessions_start ON sessions(start_time);

CREATE TABLE afk_blocks (
    id TEXT PRIMARY KEY,
    start_time INTEGER NOT NULL,
    end_time INTEGER,
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    trigger_type TEXT NOT NULL CHECK(trigger_type IN ('idle_timeout', 'system_sleep', 'manual'))
);
CREATE INDEX idx_afk_start ON afk_blocks(start_time);

CREATE TABLE session_gaps (
    id TEXT PRIMARY KEY,
    start_time INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    dropped_session_id TEXT NOT NULL,
    afk_block_id TEXT NOT NULL,
    FOREIGN KEY (afk_block_id) REFERENCES afk_blocks(id) ON DELETE CASCADE
);

CREATE TABLE session_summaries (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL UNIQUE,
    summary TEXT NOT NULL,
    explanation TEXT NOT NULL DEFAULT '',
    confidence TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    created_at INTEGER NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE screenshots (
    id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    image_ref TEXT NOT NULL,
    perceptual_hash TEXT NOT NULL DEFAULT '',
    window_title TEXT,
    app_name TEXT,
    window_x INTEGER NOT NULL DEFAULT 0,
    window_y INTEGER NOT NULL DEFAULT 0,
    window_width INTEGER NOT NULL DEFAULT 0,
    window_height INTEGER NOT NULL DEFAULT 0,
    monitor_name TEXT NOT NULL DEFAULT '',
    monitor_width INTEGER NOT NULL DEFAULT 0,
    monitor_height INTEGER NOT NULL DEFAULT 0,
    session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
    project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
    project_confidence REAL,
    project_source TEXT CHECK(project_source IN ('auto', 'manual', 'backfill'))
);
CREATE INDEX idx_screenshots_time ON screenshots(timestamp);
CREATE INDEX idx_screenshots_session ON screenshots(session_id);

CREATE TABLE focus_events (
    id TEXT PRIMARY KEY,
    window_title TEXT NOT NULL DEFAULT '',
    app_name TEXT NOT NULL DEFAULT '',
    start_time INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    duration_seconds REAL NOT NULL DEFAULT 0,
    session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
    project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
    project_confidence REAL,
    project_source TEXT CHECK(project_source IN ('auto', 'manual', 'backfill'))
);
CREATE INDEX idx_focus_time ON focus_events(start_time);
CREATE INDEX idx_focus_session ON focus_events(session_id);

CREATE TABLE shell_commands (
    id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    command TEXT NOT NULL,
    shell_type TEXT NOT NULL DEFAULT '',
    working_directory TEXT NOT NULL DEFAULT '',
    exit_code INTEGER NOT NULL DEFAULT 0,
    duration_seconds REAL NOT NULL DEFAULT 0,
    session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
    project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
    project_confidence REAL,
    project_source TEXT CHECK(project_source IN ('auto', 'manual', 'backfill'))
);
CREATE INDEX idx_shell_time ON shell_commands(timestamp);
CREATE INDEX idx_shell_session ON shell_commands(session_id);

CREATE TABLE git_commits (
    id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    hash TEXT NOT NULL,
    short_hash TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    repository TEXT NOT NULL DEFAULT '',
    remote_url TEXT NOT NULL DEFAULT '',
    repo_path TEXT NOT NULL DEFAULT '',
    branch TEXT NOT NULL DEFAULT '',
    insertions INTEGER NOT NULL DEFAULT 0,
    deletions INTEGER NOT NULL DEFAULT 0,
    session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
    project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
    project_confidence REAL,
    project_source TEXT CHECK(project_source IN ('auto', 'manual', 'backfill'))
);
CREATE INDEX idx_git_time ON git_commits(timestamp);
CREATE INDEX idx_git_session ON git_commits(session_id);

CREATE TABLE file_events (
    id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    file_path TEXT NOT NULL,
    old_path TEXT NOT NULL DEFAULT '',
    file_size_bytes INTEGER NOT NULL DEFAULT 0,
    watch_category TEXT NOT NULL DEFAULT '',
    session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
    project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
    project_confidence REAL,
    project_source TEXT CHECK(project_source IN ('auto', 'manual', 'backfill'))
);
CREATE INDEX idx_file_time ON file_events(timestamp);
CREATE INDEX idx_file_session ON file_events(session_id);

CREATE TABLE browser_visits (
    id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    url TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    domain TEXT NOT NULL DEFAULT '',
    browser TEXT NOT NULL DEFAULT '',
    visit_duration_seconds INTEGER NOT NULL DEFAULT 0,
    session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
    project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
    project_confidence REAL,
    project_source TEXT CHECK(project_source IN ('auto', 'manual', 'backfill'))
);
CREATE INDEX idx_browser_time ON browser_visits(timestamp);
CREATE INDEX idx_browser_session ON browser_visits(session_id);

CREATE TABLE assignment_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_type TEXT NOT NULL,
    event_id TEXT NOT NULL,
    project_id TEXT,
    previous_project_id TEXT,
    source TEXT NOT NULL,
    previous_source TEXT,
    confidence REAL,
    activity_time INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX idx_history_event ON assignment_history(event_type, event_id);
CREATE INDEX idx_history_activity_time ON assignment_history(activity_time);
CREATE INDEX idx_history_project ON assignment_history(project_id);

CREATE TABLE app_categories (
    app_name TEXT PRIMARY KEY,
    category TEXT NOT NULL CHECK(category IN ('focus', 'meetings', 'comms', 'other')),
    updated_at INTEGER NOT NULL
);

CREATE TABLE engine_meta (
    key TEXT PRIMARY KEY,
    value INTEGER NOT NULL
);
`,
}
