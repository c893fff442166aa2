package db

// Schema holds the ledger DDL. Every statement is safe to re-run.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id BIGSERIAL PRIMARY KEY,
	organization_id BIGINT NOT NULL,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL CHECK (type IN ('asset','liability','equity','revenue','expense')),
	category TEXT NOT NULL DEFAULT '',
	parent_id BIGINT REFERENCES accounts(id),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uq_accounts_org_code UNIQUE (organization_id, code)
);

CREATE TABLE IF NOT EXISTS account_mappings (
	organization_id BIGINT NOT NULL,
	module TEXT NOT NULL,
	key TEXT NOT NULL,
	account_code TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (organization_id, module, key)
);

CREATE TABLE IF NOT EXISTS accounting_periods (
	organization_id BIGINT NOT NULL,
	period CHAR(7) NOT NULL,
	status TEXT NOT NULL DEFAULT 'OPEN',
	changed_by BIGINT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (organization_id, period)
);

CREATE TABLE IF NOT EXISTS document_sequences (
	organization_id BIGINT NOT NULL,
	scope TEXT NOT NULL,
	seq_date DATE NOT NULL,
	last_value BIGINT NOT NULL,
	PRIMARY KEY (organization_id, scope, seq_date)
);

CREATE TABLE IF NOT EXISTS journal_entries (
	id BIGSERIAL PRIMARY KEY,
	organization_id BIGINT NOT NULL,
	project_id BIGINT,
	entry_number TEXT NOT NULL,
	entry_date DATE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL CHECK (type IN ('payment','expense','revenue','transfer','adjustment')),
	status TEXT NOT NULL CHECK (status IN ('draft','posted','cancelled')),
	related_payment_id BIGINT,
	created_by BIGINT NOT NULL,
	approved_by BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	posted_at TIMESTAMPTZ,
	cancelled_at TIMESTAMPTZ,
	CONSTRAINT uq_journal_entries_number UNIQUE (organization_id, entry_number)
);
CREATE INDEX IF NOT EXISTS idx_journal_entries_org_date ON journal_entries (organization_id, entry_date) WHERE status = 'posted';
CREATE INDEX IF NOT EXISTS idx_journal_entries_project ON journal_entries (organization_id, project_id);

CREATE TABLE IF NOT EXISTS journal_lines (
	id BIGSERIAL PRIMARY KEY,
	journal_entry_id BIGINT NOT NULL REFERENCES journal_entries(id),
	account_id BIGINT NOT NULL REFERENCES accounts(id),
	debit NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (debit >= 0),
	credit NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (credit >= 0),
	description TEXT NOT NULL DEFAULT '',
	analytics_code TEXT NOT NULL DEFAULT '',
	tax_amount NUMERIC(18,2)
);
CREATE INDEX IF NOT EXISTS idx_journal_lines_account ON journal_lines (account_id);
CREATE INDEX IF NOT EXISTS idx_journal_lines_entry ON journal_lines (journal_entry_id);

CREATE TABLE IF NOT EXISTS source_links (
	organization_id BIGINT NOT NULL,
	module TEXT NOT NULL,
	ref_id UUID NOT NULL,
	journal_entry_id BIGINT NOT NULL REFERENCES journal_entries(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uq_source_links UNIQUE (organization_id, module, ref_id)
);

CREATE TABLE IF NOT EXISTS account_balances (
	account_id BIGINT NOT NULL REFERENCES accounts(id),
	project_id BIGINT NOT NULL DEFAULT 0,
	period CHAR(7) NOT NULL,
	opening_balance NUMERIC(18,2) NOT NULL,
	total_debits NUMERIC(18,2) NOT NULL,
	total_credits NUMERIC(18,2) NOT NULL,
	closing_balance NUMERIC(18,2) NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (account_id, project_id, period)
);

CREATE TABLE IF NOT EXISTS payments (
	id BIGSERIAL PRIMARY KEY,
	organization_id BIGINT NOT NULL,
	project_id BIGINT,
	number TEXT NOT NULL,
	amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
	direction TEXT NOT NULL CHECK (direction IN ('incoming','outgoing')),
	status TEXT NOT NULL CHECK (status IN ('pending','confirmed','cancelled')),
	type TEXT NOT NULL DEFAULT '',
	method TEXT NOT NULL DEFAULT '',
	counterparty TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	payment_date DATE NOT NULL,
	related_journal_entry_id BIGINT REFERENCES journal_entries(id),
	created_by BIGINT NOT NULL,
	confirmed_by BIGINT,
	confirmed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uq_payments_number UNIQUE (organization_id, number)
);
CREATE INDEX IF NOT EXISTS idx_payments_project ON payments (organization_id, project_id);

CREATE TABLE IF NOT EXISTS expenses (
	id BIGSERIAL PRIMARY KEY,
	organization_id BIGINT NOT NULL,
	project_id BIGINT,
	amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
	tax_amount NUMERIC(18,2),
	category TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	vendor TEXT NOT NULL DEFAULT '',
	expense_date DATE NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('pending','approved','paid','rejected')),
	payment_id BIGINT REFERENCES payments(id),
	related_journal_entry_id BIGINT REFERENCES journal_entries(id),
	created_by BIGINT NOT NULL,
	paid_by BIGINT,
	paid_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_expenses_project ON expenses (organization_id, project_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_expenses_payment ON expenses (payment_id) WHERE payment_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS project_budgets (
	id BIGSERIAL PRIMARY KEY,
	organization_id BIGINT NOT NULL,
	project_id BIGINT NOT NULL,
	name TEXT NOT NULL,
	total_budget NUMERIC(18,2) NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('draft','approved','revised')),
	effective_date DATE NOT NULL,
	created_by BIGINT NOT NULL,
	approved_by BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_project_budgets_project ON project_budgets (organization_id, project_id, effective_date);

CREATE TABLE IF NOT EXISTS budget_lines (
	id BIGSERIAL PRIMARY KEY,
	budget_id BIGINT NOT NULL REFERENCES project_budgets(id),
	account_id BIGINT NOT NULL REFERENCES accounts(id),
	category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	planned_amount NUMERIC(18,2) NOT NULL,
	allocated_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
	spent_amount NUMERIC(18,2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS budget_revisions (
	id BIGSERIAL PRIMARY KEY,
	original_budget_id BIGINT NOT NULL REFERENCES project_budgets(id),
	new_budget_id BIGINT NOT NULL REFERENCES project_budgets(id),
	change_amount NUMERIC(18,2) NOT NULL,
	reason TEXT NOT NULL,
	created_by BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id BIGSERIAL PRIMARY KEY,
	organization_id BIGINT NOT NULL,
	actor_id BIGINT NOT NULL,
	action TEXT NOT NULL,
	entity TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	meta JSONB,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	organization_id BIGINT NOT NULL,
	key TEXT NOT NULL,
	module TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (organization_id, module, key)
);
`
