package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/blendle/automaat/internal/task"
)

// CreateTask persists t and its steps/variables in a single transaction.
// Steps are upserted on (task_id, name) and advertisements are upserted on
// step_id, satisfying I9.
func (s *Store) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		const insertTask = `
			INSERT INTO tasks (name, description, labels)
			VALUES ($1, $2, $3)
			RETURNING id`
		if err := tx.QueryRow(ctx, insertTask, t.Name, t.Description, t.Labels).Scan(&t.ID); err != nil {
			return wrap("inserting task", err)
		}

		for i := range t.Variables {
			v := &t.Variables[i]
			v.TaskID = t.ID
			const insertVariable = `
				INSERT INTO variables (task_id, key, description, default_value, example_value, selection_constraint)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`
			if err := tx.QueryRow(ctx, insertVariable, v.TaskID, v.Key, v.Description, v.DefaultValue, v.ExampleValue, v.SelectionConstraint).Scan(&v.ID); err != nil {
				return wrap("inserting variable", err)
			}
		}

		for i := range t.Steps {
			st := &t.Steps[i]
			st.TaskID = t.ID
			const upsertStep = `
				INSERT INTO steps (task_id, name, description, processor, position, advertised_variable_key)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (task_id, name) DO UPDATE SET
					description = EXCLUDED.description,
					processor = EXCLUDED.processor,
					position = EXCLUDED.position,
					advertised_variable_key = EXCLUDED.advertised_variable_key
				RETURNING id`
			if err := tx.QueryRow(ctx, upsertStep, st.TaskID, st.Name, st.Description, st.Processor, st.Position, st.AdvertisedVariableKey).Scan(&st.ID); err != nil {
				return wrap("upserting step", err)
			}

			if st.AdvertisedVariableKey != nil {
				const upsertAdvertisement = `
					INSERT INTO variable_advertisements (step_id, key)
					VALUES ($1, $2)
					ON CONFLICT (step_id) DO UPDATE SET key = EXCLUDED.key`
				if _, err := tx.Exec(ctx, upsertAdvertisement, st.ID, *st.AdvertisedVariableKey); err != nil {
					return wrap("upserting variable advertisement", err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTask loads a task along with its steps and variables, ordered by
// position/id respectively.
func (s *Store) GetTask(ctx context.Context, id int32) (*task.Task, error) {
	var t task.Task
	t.ID = id

	const selectTask = `SELECT name, description, labels FROM tasks WHERE id = $1`
	if err := s.pool.QueryRow(ctx, selectTask, id).Scan(&t.Name, &t.Description, &t.Labels); err != nil {
		return nil, rowToErr(wrap("loading task", err))
	}

	const selectVariables = `
		SELECT id, key, description, default_value, example_value, selection_constraint
		FROM variables WHERE task_id = $1 ORDER BY id`
	rows, err := s.pool.Query(ctx, selectVariables, id)
	if err != nil {
		return nil, wrap("loading task variables", err)
	}
	for rows.Next() {
		var v task.Variable
		v.TaskID = id
		if err := rows.Scan(&v.ID, &v.Key, &v.Description, &v.DefaultValue, &v.ExampleValue, &v.SelectionConstraint); err != nil {
			rows.Close()
			return nil, wrap("scanning task variable", err)
		}
		t.Variables = append(t.Variables, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrap("loading task variables", err)
	}

	const selectSteps = `
		SELECT id, name, description, processor, position, advertised_variable_key
		FROM steps WHERE task_id = $1 ORDER BY position`
	stepRows, err := s.pool.Query(ctx, selectSteps, id)
	if err != nil {
		return nil, wrap("loading task steps", err)
	}
	defer stepRows.Close()
	for stepRows.Next() {
		var st task.Step
		st.TaskID = id
		if err := stepRows.Scan(&st.ID, &st.Name, &st.Description, &st.Processor, &st.Position, &st.AdvertisedVariableKey); err != nil {
			return nil, wrap("scanning task step", err)
		}
		t.Steps = append(t.Steps, st)
	}
	if err := stepRows.Err(); err != nil {
		return nil, wrap("loading task steps", err)
	}

	return &t, nil
}

// SearchTasks returns tasks whose name contains query (case-insensitive),
// or every task when query is empty.
func (s *Store) SearchTasks(ctx context.Context, query string) ([]task.Task, error) {
	const search = `
		SELECT id, name, description, labels FROM tasks
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
		ORDER BY name`

	rows, err := s.pool.Query(ctx, search, query)
	if err != nil {
		return nil, wrap("searching tasks", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		var t task.Task
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Labels); err != nil {
			return nil, wrap("scanning task", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CountJobsForTask returns how many jobs reference taskID, used to derive
// the "<task.name> #<count+1>" job name.
func (s *Store) CountJobsForTask(ctx context.Context, taskID int32) (int, error) {
	const query = `SELECT count(*) FROM jobs WHERE task_reference = $1`

	var count int
	if err := s.pool.QueryRow(ctx, query, taskID).Scan(&count); err != nil {
		return 0, wrap("counting jobs for task", err)
	}
	return count, nil
}
