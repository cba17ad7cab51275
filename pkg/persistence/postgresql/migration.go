package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE flows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_flows_active ON flows(active);

			CREATE TABLE connections (
				id UUID PRIMARY KEY,
				app_key VARCHAR(255) NOT NULL,
				data JSONB,
				verified BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_connections_app_key ON connections(app_key);

			CREATE TABLE steps (
				id UUID PRIMARY KEY,
				flow_id UUID NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
				type VARCHAR(50) NOT NULL CHECK (type IN ('trigger', 'action')),
				position INT NOT NULL CHECK (position >= 1),
				app_key VARCHAR(255),
				key VARCHAR(255),
				connection_id UUID REFERENCES connections(id) ON DELETE SET NULL,
				parameters JSONB DEFAULT '{}',
				webhook_path VARCHAR(255) UNIQUE,
				status VARCHAR(50) NOT NULL DEFAULT 'incomplete' CHECK (status IN ('incomplete', 'completed')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				-- Deferred so a single UPDATE can shift a block of positions
				-- without transient duplicate values failing the statement.
				CONSTRAINT steps_flow_position_unique UNIQUE (flow_id, position) DEFERRABLE INITIALLY DEFERRED
			);

			CREATE INDEX idx_steps_flow_id ON steps(flow_id);
			CREATE INDEX idx_steps_webhook_path ON steps(webhook_path);

			CREATE TABLE executions (
				id UUID PRIMARY KEY,
				flow_id UUID NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
				test_run BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_executions_flow_id ON executions(flow_id);

			CREATE TABLE execution_steps (
				id UUID PRIMARY KEY,
				execution_id UUID NOT NULL REFERENCES executions(id) ON DELETE CASCADE,
				step_id UUID NOT NULL REFERENCES steps(id) ON DELETE CASCADE,
				status VARCHAR(50) NOT NULL CHECK (status IN ('success', 'failure')),
				data_in JSONB,
				data_out JSONB,
				error_details JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_execution_steps_execution_id ON execution_steps(execution_id);
			CREATE INDEX idx_execution_steps_step_created ON execution_steps(step_id, created_at);
		`,
	}
}
