package store

// Schema creates the verification tables. The record body lives in document;
// history is a separate array so admin transitions can append to it without
// rewriting the document.
const Schema = `
CREATE TABLE IF NOT EXISTS verification_records (
	id            UUID PRIMARY KEY,
	instructor_id UUID NOT NULL UNIQUE,
	status        TEXT NOT NULL,
	document      JSONB NOT NULL,
	history       JSONB NOT NULL DEFAULT '[]'::jsonb,
	version       BIGINT NOT NULL,
	submitted_at  TIMESTAMPTZ,
	decided_at    TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS verification_records_status_updated_idx
	ON verification_records (status, updated_at DESC);
CREATE INDEX IF NOT EXISTS verification_records_decided_idx
	ON verification_records (decided_at) WHERE decided_at IS NOT NULL;
`
