package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/blendle/automaat/internal/job"
)

// CreateJob persists j, its step snapshots, and its (encrypted) variable
// bindings in a single transaction.
func (s *Store) CreateJob(ctx context.Context, j *job.Job) (*job.Job, error) {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		const insertJob = `
			INSERT INTO jobs (name, description, status, task_reference)
			VALUES ($1, $2, $3, $4)
			RETURNING id`
		if err := tx.QueryRow(ctx, insertJob, j.Name, j.Description, j.Status, j.TaskReference).Scan(&j.ID); err != nil {
			return wrap("inserting job", err)
		}

		for i := range j.Variables {
			v := &j.Variables[i]
			v.JobID = j.ID
			const insertVariable = `
				INSERT INTO job_variables (job_id, key, value)
				VALUES ($1, $2, pgp_sym_encrypt($3, $4))
				RETURNING id`
			if err := tx.QueryRow(ctx, insertVariable, v.JobID, v.Key, v.Value, s.secret).Scan(&v.ID); err != nil {
				return wrap("inserting job variable", err)
			}
		}

		for i := range j.Steps {
			st := &j.Steps[i]
			st.JobID = j.ID
			const insertStep = `
				INSERT INTO job_steps (job_id, name, description, processor, position, advertised_variable_key, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id`
			if err := tx.QueryRow(ctx, insertStep, st.JobID, st.Name, st.Description, st.Processor, st.Position, st.AdvertisedVariableKey, st.Status).Scan(&st.ID); err != nil {
				return wrap("inserting job step", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}

// GetJob loads a job along with its decrypted variable bindings and step
// snapshots, ordered by position.
func (s *Store) GetJob(ctx context.Context, id int32) (*job.Job, error) {
	var j job.Job
	j.ID = id

	const selectJob = `SELECT name, description, status, task_reference FROM jobs WHERE id = $1`
	if err := s.pool.QueryRow(ctx, selectJob, id).Scan(&j.Name, &j.Description, &j.Status, &j.TaskReference); err != nil {
		return nil, rowToErr(wrap("loading job", err))
	}

	const selectVariables = `
		SELECT id, key, pgp_sym_decrypt(value, $2)
		FROM job_variables WHERE job_id = $1 ORDER BY id`
	varRows, err := s.pool.Query(ctx, selectVariables, id, s.secret)
	if err != nil {
		return nil, wrap("loading job variables", err)
	}
	for varRows.Next() {
		var v job.Variable
		v.JobID = id
		if err := varRows.Scan(&v.ID, &v.Key, &v.Value); err != nil {
			varRows.Close()
			return nil, wrap("scanning job variable", err)
		}
		j.Variables = append(j.Variables, v)
	}
	varRows.Close()
	if err := varRows.Err(); err != nil {
		return nil, wrap("loading job variables", err)
	}

	const selectSteps = `
		SELECT id, name, description, processor, position, advertised_variable_key,
		       status, started_at, finished_at, output
		FROM job_steps WHERE job_id = $1 ORDER BY position`
	stepRows, err := s.pool.Query(ctx, selectSteps, id)
	if err != nil {
		return nil, wrap("loading job steps", err)
	}
	defer stepRows.Close()
	for stepRows.Next() {
		var st job.Step
		st.JobID = id
		if err := stepRows.Scan(&st.ID, &st.Name, &st.Description, &st.Processor, &st.Position,
			&st.AdvertisedVariableKey, &st.Status, &st.StartedAt, &st.FinishedAt, &st.Output); err != nil {
			return nil, wrap("scanning job step", err)
		}
		j.Steps = append(j.Steps, st)
	}
	if err := stepRows.Err(); err != nil {
		return nil, wrap("loading job steps", err)
	}

	return &j, nil
}

// ListJobs returns every job, most recently created first.
func (s *Store) ListJobs(ctx context.Context) ([]job.Job, error) {
	const query = `SELECT id, name, description, status, task_reference FROM jobs ORDER BY id DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, wrap("listing jobs", err)
	}
	defer rows.Close()

	var jobs []job.Job
	for rows.Next() {
		var j job.Job
		if err := rows.Scan(&j.ID, &j.Name, &j.Description, &j.Status, &j.TaskReference); err != nil {
			return nil, wrap("scanning job", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ClaimNextJob atomically transitions one Pending job to Running (I4) using
// SELECT ... FOR UPDATE SKIP LOCKED, and returns it fully loaded. It returns
// ErrNotFound if no job is waiting.
func (s *Store) ClaimNextJob(ctx context.Context) (*job.Job, error) {
	var id int32

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		const claim = `
			SELECT id FROM jobs
			WHERE status = $1
			ORDER BY id
			FOR UPDATE SKIP LOCKED
			LIMIT 1`
		if err := tx.QueryRow(ctx, claim, job.StatusPending).Scan(&id); err != nil {
			return rowToErr(wrap("claiming job", err))
		}

		const markRunning = `UPDATE jobs SET status = $1 WHERE id = $2`
		if _, err := tx.Exec(ctx, markRunning, job.StatusRunning, id); err != nil {
			return wrap("marking job running", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetJob(ctx, id)
}

// StartStep marks step as Running and records its start time.
func (s *Store) StartStep(ctx context.Context, stepID int32, startedAt time.Time) error {
	const query = `UPDATE job_steps SET status = $1, started_at = $2 WHERE id = $3`
	if _, err := s.pool.Exec(ctx, query, job.StepStatusRunning, startedAt, stepID); err != nil {
		return wrap("starting job step", err)
	}
	return nil
}

// FinishStep records the terminal status, output and finish time of a step.
func (s *Store) FinishStep(ctx context.Context, stepID int32, status job.StepStatus, output *string, finishedAt time.Time) error {
	const query = `UPDATE job_steps SET status = $1, output = $2, finished_at = $3 WHERE id = $4`
	if _, err := s.pool.Exec(ctx, query, status, output, finishedAt, stepID); err != nil {
		return wrap("finishing job step", err)
	}
	return nil
}

// FinalizeJob records the job's terminal status, derived from its last
// executed step (I1).
func (s *Store) FinalizeJob(ctx context.Context, jobID int32, status job.Status) error {
	const query = `UPDATE jobs SET status = $1 WHERE id = $2`
	if _, err := s.pool.Exec(ctx, query, status, jobID); err != nil {
		return wrap("finalizing job", err)
	}
	return nil
}
