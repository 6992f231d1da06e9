package store

// schema contains the DDL executed on open. Using IF NOT EXISTS makes it
// safe to run on every startup.
//
// SQLite treats NULLs as distinct in UNIQUE constraints, so sibling title
// uniqueness is an expression index on COALESCE(parent_id, 0): root nodes
// share the 0 group. Row IDs start at 1, so 0 never names a real parent.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS plans (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id    INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    name          TEXT NOT NULL,
    summary       TEXT NOT NULL DEFAULT '',
    next_local_id INTEGER NOT NULL DEFAULT 1,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(project_id, name)
);

CREATE TABLE IF NOT EXISTS nodes (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    plan_id     INTEGER NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
    parent_id   INTEGER REFERENCES nodes(id) ON DELETE CASCADE,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    done        BOOLEAN NOT NULL DEFAULT FALSE,
    position    INTEGER NOT NULL,
    local_id    INTEGER NOT NULL,
    UNIQUE(plan_id, local_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS nodes_sibling_title
    ON nodes(plan_id, COALESCE(parent_id, 0), title);

CREATE INDEX IF NOT EXISTS nodes_parent_position
    ON nodes(plan_id, parent_id, position);
`
