package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS transactions (
    user_id              TEXT NOT NULL,
    id                   TEXT NOT NULL,
    date                 TEXT NOT NULL,
    amount               TEXT NOT NULL,
    category             TEXT NOT NULL,
    description          TEXT,
    tx_type              TEXT NOT NULL,
    source_file          TEXT,
    imported_at          TEXT NOT NULL,
    PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    kind                 TEXT NOT NULL,
    params               TEXT NOT NULL,
    payload              TEXT NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS models (
    user_id              TEXT PRIMARY KEY,
    fingerprint          TEXT NOT NULL,
    payload              BLOB NOT NULL,
    cv_mae               REAL,
    train_rows           INTEGER,
    trained_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(user_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_source ON transactions(source_file);
CREATE INDEX IF NOT EXISTS idx_results_lookup ON results(user_id, kind, params, created_at);
`
