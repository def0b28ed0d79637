package game

// schema is the relational layout of the store. Status values are checked
// by the application, not by the database.
const schema = `
CREATE TABLE IF NOT EXISTS games (
    code TEXT PRIMARY KEY,
    host TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'waiting',
    round INTEGER NOT NULL DEFAULT 1,
    main_word TEXT,
    decoy_word TEXT,
    voted_out TEXT,
    winner TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    game_code TEXT NOT NULL REFERENCES games(code) ON DELETE CASCADE,
    is_impostor BOOLEAN NOT NULL DEFAULT FALSE,
    assigned_word TEXT,
    joined_at TEXT NOT NULL,
    UNIQUE(game_code, username)
);

CREATE TABLE IF NOT EXISTS submissions (
    id TEXT PRIMARY KEY,
    game_code TEXT NOT NULL REFERENCES games(code) ON DELETE CASCADE,
    username TEXT NOT NULL,
    round INTEGER NOT NULL,
    content TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE(game_code, username, round)
);

CREATE TABLE IF NOT EXISTS votes (
    id TEXT PRIMARY KEY,
    game_code TEXT NOT NULL REFERENCES games(code) ON DELETE CASCADE,
    voter TEXT NOT NULL,
    votee TEXT NOT NULL,
    round INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE(game_code, voter, round)
);

CREATE INDEX IF NOT EXISTS idx_games_created_at ON games(created_at);
CREATE INDEX IF NOT EXISTS idx_users_game_code ON users(game_code);
CREATE INDEX IF NOT EXISTS idx_submissions_game_round ON submissions(game_code, round);
CREATE INDEX IF NOT EXISTS idx_votes_game_round ON votes(game_code, round);
`
