package db

var schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id UUID PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	venue VARCHAR(255) NOT NULL,
	starts_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ticket_tiers (
	tier_id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events (event_id),
	name VARCHAR(255) NOT NULL,
	price NUMERIC(10, 2) NOT NULL,
	capacity INT NOT NULL,
	sold INT NOT NULL DEFAULT 0,
	status VARCHAR(32) NOT NULL,
	CHECK (sold >= 0 AND sold <= capacity)
);

CREATE TABLE IF NOT EXISTS pending_orders (
	payment_id VARCHAR(255) PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	total NUMERIC(10, 2) NOT NULL,
	currency CHAR(3) NOT NULL,
	checkout_url TEXT NOT NULL,
	state VARCHAR(32) NOT NULL,
	failure_reason VARCHAR(255) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS pending_orders_state_created_at_idx ON pending_orders (state, created_at);

CREATE TABLE IF NOT EXISTS order_items (
	payment_id VARCHAR(255) NOT NULL REFERENCES pending_orders (payment_id),
	tier_id UUID NOT NULL REFERENCES ticket_tiers (tier_id),
	quantity INT NOT NULL CHECK (quantity > 0),
	unit_price NUMERIC(10, 2) NOT NULL,
	PRIMARY KEY (payment_id, tier_id)
);

CREATE TABLE IF NOT EXISTS reservations (
	payment_id VARCHAR(255) NOT NULL,
	tier_id UUID NOT NULL REFERENCES ticket_tiers (tier_id),
	requested INT NOT NULL,
	granted INT NOT NULL,
	reason VARCHAR(64) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (payment_id, tier_id)
);

CREATE TABLE IF NOT EXISTS ticket_code_sequences (
	prefix VARCHAR(255) PRIMARY KEY,
	last_value BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS issued_tickets (
	code VARCHAR(255) PRIMARY KEY,
	tier_id UUID NOT NULL REFERENCES ticket_tiers (tier_id),
	payment_id VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	slot INT NOT NULL,
	issued_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	used BOOLEAN NOT NULL DEFAULT false,
	used_at TIMESTAMPTZ,
	revoked_at TIMESTAMPTZ,
	UNIQUE (payment_id, tier_id, slot)
);

CREATE TABLE IF NOT EXISTS reconciliations (
	payment_id VARCHAR(255) NOT NULL,
	tier_id UUID NOT NULL,
	requested INT NOT NULL,
	granted INT NOT NULL,
	reason VARCHAR(64) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (payment_id, tier_id, reason)
);

CREATE TABLE IF NOT EXISTS audit_log (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMPTZ NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	event_payload JSONB NOT NULL
);
`
