package store

const schema = `
CREATE TABLE IF NOT EXISTS cases (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    query       TEXT NOT NULL,
    platforms   TEXT NOT NULL DEFAULT '[]',
    status      TEXT NOT NULL DEFAULT 'draft',
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL,
    item_count  INTEGER NOT NULL DEFAULT 0,
    risk_score  REAL NOT NULL DEFAULT 0,
    severity    TEXT NOT NULL DEFAULT 'R1',
    analysis    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_cases_updated ON cases(updated_at);

-- Append-only. Item ids are deterministic fingerprints and repeat across
-- collect passes, so seq carries insertion order and uniqueness.
CREATE TABLE IF NOT EXISTS items (
    seq           INTEGER PRIMARY KEY AUTOINCREMENT,
    id            TEXT NOT NULL,
    case_id       TEXT NOT NULL REFERENCES cases(id),
    platform      TEXT NOT NULL,
    author        TEXT NOT NULL DEFAULT '',
    text          TEXT NOT NULL DEFAULT '',
    url           TEXT NOT NULL DEFAULT '',
    observed_at   DATETIME NOT NULL,
    language      TEXT NOT NULL DEFAULT '',
    engagement    INTEGER NOT NULL DEFAULT 0,
    source_name   TEXT NOT NULL DEFAULT '',
    media_hash    TEXT NOT NULL DEFAULT '',
    narrative_key TEXT NOT NULL DEFAULT '',
    entities      TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_items_case ON items(case_id);

CREATE TABLE IF NOT EXISTS alerts (
    id                 TEXT NOT NULL,
    case_id            TEXT NOT NULL REFERENCES cases(id),
    severity           TEXT NOT NULL,
    status             TEXT NOT NULL DEFAULT 'open',
    title              TEXT NOT NULL,
    summary            TEXT NOT NULL DEFAULT '',
    recommended_action TEXT NOT NULL DEFAULT '',
    created_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alerts_case ON alerts(case_id);

CREATE TABLE IF NOT EXISTS evidence (
    id            TEXT NOT NULL,
    case_id       TEXT NOT NULL REFERENCES cases(id),
    item_id       TEXT NOT NULL,
    source_name   TEXT NOT NULL DEFAULT '',
    source_url    TEXT NOT NULL DEFAULT '',
    evidence_hash TEXT NOT NULL,
    note          TEXT NOT NULL DEFAULT '',
    captured_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_case ON evidence(case_id);

CREATE TABLE IF NOT EXISTS media_verifications (
    case_id     TEXT NOT NULL REFERENCES cases(id),
    item_id     TEXT NOT NULL,
    verdict     TEXT NOT NULL,
    confidence  REAL NOT NULL DEFAULT 0,
    checks      TEXT NOT NULL DEFAULT '{}',
    explanation TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_media_case ON media_verifications(case_id);

CREATE TABLE IF NOT EXISTS reports (
    case_id TEXT PRIMARY KEY REFERENCES cases(id),
    payload TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS timeline (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL,
    case_id    TEXT NOT NULL REFERENCES cases(id),
    event_type TEXT NOT NULL,
    summary    TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    metadata   TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_timeline_case ON timeline(case_id);
`
