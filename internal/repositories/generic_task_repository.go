package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"projectdesk/internal/models"
)

// GenericTaskRepository reads tasks, bugs, risks and milestones as one
// assignment set.
type GenericTaskRepository interface {
	CountByType(ctx context.Context, t models.AssignmentType, c models.GenericTaskCriteria) (int, error)
	FindAccountsHasOverdueAssignments(ctx context.Context, c models.GenericTaskCriteria) ([]models.BillingAccount, error)
	FindProjectsHasOverdueAssignments(ctx context.Context, c models.GenericTaskCriteria) ([]int64, error)
	Search(ctx context.Context, c models.GenericTaskCriteria, offset, limit int) ([]models.GenericTask, error)
}

type genericTaskRepository struct {
	db *sql.DB
}

func NewGenericTaskRepository(db *sql.DB) GenericTaskRepository {
	return &genericTaskRepository{db: db}
}

// facetRow holds the variant columns shared by every source of the union.
type facetRow struct {
	text1 sql.NullString
	text2 sql.NullString
	num   sql.NullFloat64
	ref   sql.NullInt64
	when  sql.NullTime
}

// assignmentSource maps one assignment type onto its table.
type assignmentSource struct {
	alias        string
	from         string
	joins        string
	closedExpr   string
	dueCol       string
	assigneeCol  string
	milestoneCol string
	projection   string
	facet        func(g *models.GenericTask, f facetRow)
}

// Projection column order:
// type, type_id, project_id, project_short_name, s_account_id, name, assignee,
// assignee_full_name, created_user, due_date, status, is_closed, created_time,
// last_updated_time, facet_text1, facet_text2, facet_num, facet_ref, facet_time
var assignmentSources = map[models.AssignmentType]assignmentSource{
	models.AssignmentTask: {
		alias:        "t",
		from:         "tasks t",
		joins:        " LEFT JOIN projects p ON p.id = t.project_id LEFT JOIN users u ON u.username = t.assign_user",
		closedExpr:   "t.status = 'Closed'",
		dueCol:       "t.due_date",
		assigneeCol:  "t.assign_user",
		milestoneCol: "t.milestone_id",
		projection: `'Task' AS type, t.id AS type_id, t.project_id, COALESCE(p.short_name, '') AS project_short_name,
			t.s_account_id, t.name, t.assign_user AS assignee, u.display_name AS assignee_full_name,
			t.log_by AS created_user, t.due_date, t.status, (t.status = 'Closed') AS is_closed,
			t.created_at AS created_time, t.updated_at AS last_updated_time,
			t.priority AS facet_text1, NULL::text AS facet_text2, t.percentage_complete AS facet_num,
			t.parent_task_id AS facet_ref, NULL::timestamptz AS facet_time`,
		facet: func(g *models.GenericTask, f facetRow) {
			tf := &models.TaskFacet{Priority: f.text1.String, PercentageComplete: f.num.Float64}
			if f.ref.Valid {
				id := f.ref.Int64
				tf.ParentTaskID = &id
			}
			g.Task = tf
		},
	},
	models.AssignmentBug: {
		alias:        "b",
		from:         "bugs b",
		joins:        " LEFT JOIN projects p ON p.id = b.project_id LEFT JOIN users u ON u.username = b.assign_user",
		closedExpr:   "b.status IN ('Resolved', 'Verified')",
		dueCol:       "b.due_date",
		assigneeCol:  "b.assign_user",
		milestoneCol: "b.milestone_id",
		projection: `'Bug' AS type, b.id AS type_id, b.project_id, COALESCE(p.short_name, '') AS project_short_name,
			b.s_account_id, b.name, b.assign_user AS assignee, u.display_name AS assignee_full_name,
			b.log_by AS created_user, b.due_date, b.status, (b.status IN ('Resolved', 'Verified')) AS is_closed,
			b.created_at AS created_time, b.updated_at AS last_updated_time,
			b.severity AS facet_text1, b.priority AS facet_text2, NULL::double precision AS facet_num,
			NULL::bigint AS facet_ref, NULL::timestamptz AS facet_time`,
		facet: func(g *models.GenericTask, f facetRow) {
			g.Bug = &models.BugFacet{Severity: f.text1.String, Priority: f.text2.String}
		},
	},
	models.AssignmentRisk: {
		alias:        "r",
		from:         "risks r",
		joins:        " LEFT JOIN projects p ON p.id = r.project_id LEFT JOIN users u ON u.username = r.assign_user",
		closedExpr:   "r.status = 'Closed'",
		dueCol:       "r.due_date",
		assigneeCol:  "r.assign_user",
		milestoneCol: "r.milestone_id",
		projection: `'Risk' AS type, r.id AS type_id, r.project_id, COALESCE(p.short_name, '') AS project_short_name,
			r.s_account_id, r.name, r.assign_user AS assignee, u.display_name AS assignee_full_name,
			r.created_user, r.due_date, r.status, (r.status = 'Closed') AS is_closed,
			r.created_at AS created_time, r.updated_at AS last_updated_time,
			r.probability AS facet_text1, r.consequence AS facet_text2, NULL::double precision AS facet_num,
			NULL::bigint AS facet_ref, NULL::timestamptz AS facet_time`,
		facet: func(g *models.GenericTask, f facetRow) {
			g.Risk = &models.RiskFacet{Probability: f.text1.String, Consequence: f.text2.String}
		},
	},
	models.AssignmentMilestone: {
		alias:        "m",
		from:         "milestones m",
		joins:        " LEFT JOIN projects p ON p.id = m.project_id LEFT JOIN users u ON u.username = m.assign_user",
		closedExpr:   "m.status = 'Closed'",
		dueCol:       "m.end_date",
		assigneeCol:  "m.assign_user",
		milestoneCol: "m.id",
		projection: `'Milestone' AS type, m.id AS type_id, m.project_id, COALESCE(p.short_name, '') AS project_short_name,
			m.s_account_id, m.name, m.assign_user AS assignee, u.display_name AS assignee_full_name,
			m.created_user, m.end_date AS due_date, m.status, (m.status = 'Closed') AS is_closed,
			m.created_at AS created_time, m.updated_at AS last_updated_time,
			NULL::text AS facet_text1, NULL::text AS facet_text2, NULL::double precision AS facet_num,
			NULL::bigint AS facet_ref, m.start_date AS facet_time`,
		facet: func(g *models.GenericTask, f facetRow) {
			mf := &models.MilestoneFacet{}
			if f.when.Valid {
				t := f.when.Time
				mf.StartDate = &t
			}
			g.Milestone = mf
		},
	},
}

// argList numbers positional parameters across the whole statement.
type argList struct {
	args []any
}

func (a *argList) add(v any) string {
	a.args = append(a.args, v)
	return fmt.Sprintf("$%d", len(a.args))
}

// includedSources returns the sources selected by c.Types, in AssignmentTypes order.
func includedSources(c models.GenericTaskCriteria) []assignmentSource {
	var out []assignmentSource
	for _, t := range models.AssignmentTypes {
		if c.Includes(t) {
			out = append(out, assignmentSources[t])
		}
	}
	return out
}

func (s assignmentSource) where(c models.GenericTaskCriteria, a *argList) string {
	conds := []string{}
	col := func(name string) string { return s.alias + "." + name }

	if c.SAccountID != nil {
		conds = append(conds, col("s_account_id")+" = "+a.add(*c.SAccountID))
	}
	if len(c.TypeIDs) > 0 {
		conds = append(conds, col("id")+" = ANY("+a.add(pq.Array(c.TypeIDs))+")")
	}
	if len(c.ProjectIDs) > 0 {
		conds = append(conds, col("project_id")+" = ANY("+a.add(pq.Array(c.ProjectIDs))+")")
	}
	if c.Assignee != nil {
		conds = append(conds, s.assigneeCol+" = "+a.add(*c.Assignee))
	}
	if c.Name != nil && *c.Name != "" {
		conds = append(conds, col("name")+" ILIKE '%' || "+a.add(*c.Name)+" || '%'")
	}
	if c.MilestoneID != nil {
		conds = append(conds, s.milestoneCol+" = "+a.add(*c.MilestoneID))
	}
	if c.IsOpen || c.IsOverdue {
		conds = append(conds, "NOT ("+s.closedExpr+")")
	}
	if c.IsOverdue {
		conds = append(conds, s.dueCol+" < "+a.add(c.ReferenceTime()))
	}
	if c.DueDateFrom != nil {
		conds = append(conds, s.dueCol+" >= "+a.add(*c.DueDateFrom))
	}
	if c.DueDateTo != nil {
		conds = append(conds, s.dueCol+" <= "+a.add(*c.DueDateTo))
	}

	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (r *genericTaskRepository) CountByType(ctx context.Context, t models.AssignmentType, c models.GenericTaskCriteria) (int, error) {
	src, ok := assignmentSources[t]
	if !ok || !c.Includes(t) {
		return 0, nil
	}
	var a argList
	q := "SELECT COUNT(*) FROM " + src.from + src.where(c, &a)

	var n int
	if err := r.db.QueryRowContext(ctx, q, a.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", strings.ToLower(t.String()), err)
	}
	return n, nil
}

func (r *genericTaskRepository) FindAccountsHasOverdueAssignments(ctx context.Context, c models.GenericTaskCriteria) ([]models.BillingAccount, error) {
	c.IsOverdue = true
	sources := includedSources(c)
	if len(sources) == 0 {
		return []models.BillingAccount{}, nil
	}

	var a argList
	exists := make([]string, 0, len(sources))
	for _, src := range sources {
		link := src.alias + ".s_account_id = ba.id"
		w := src.where(c, &a)
		if w == "" {
			w = " WHERE " + link
		} else {
			w += " AND " + link
		}
		exists = append(exists, "EXISTS (SELECT 1 FROM "+src.from+w+")")
	}
	q := `SELECT ba.id, ba.name, ba.subdomain, ba.owner_email FROM billing_accounts ba WHERE ` +
		strings.Join(exists, " OR ") + ` ORDER BY ba.id`

	rows, err := r.db.QueryContext(ctx, q, a.args...)
	if err != nil {
		return nil, fmt.Errorf("accounts with overdue assignments: %w", err)
	}
	defer rows.Close()

	out := []models.BillingAccount{}
	for rows.Next() {
		var (
			acc   models.BillingAccount
			owner sql.NullString
		)
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Subdomain, &owner); err != nil {
			return nil, fmt.Errorf("scan billing account: %w", err)
		}
		acc.OwnerEmail = owner.String
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (r *genericTaskRepository) FindProjectsHasOverdueAssignments(ctx context.Context, c models.GenericTaskCriteria) ([]int64, error) {
	c.IsOverdue = true
	sources := includedSources(c)
	if len(sources) == 0 {
		return []int64{}, nil
	}

	var a argList
	parts := make([]string, 0, len(sources))
	for _, src := range sources {
		parts = append(parts, "SELECT "+src.alias+".project_id FROM "+src.from+src.where(c, &a))
	}
	q := "SELECT project_id FROM (" + strings.Join(parts, " UNION ") + ") AS overdue ORDER BY project_id"

	rows, err := r.db.QueryContext(ctx, q, a.args...)
	if err != nil {
		return nil, fmt.Errorf("projects with overdue assignments: %w", err)
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan project id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *genericTaskRepository) Search(ctx context.Context, c models.GenericTaskCriteria, offset, limit int) ([]models.GenericTask, error) {
	sources := includedSources(c)
	if len(sources) == 0 {
		return []models.GenericTask{}, nil
	}

	var a argList
	parts := make([]string, 0, len(sources))
	for _, src := range sources {
		parts = append(parts, "SELECT "+src.projection+" FROM "+src.from+src.joins+src.where(c, &a))
	}
	q := "SELECT * FROM (" + strings.Join(parts, " UNION ALL ") + ") AS g ORDER BY " + genericSortClause(c.Sort)
	if offset > 0 {
		q += " OFFSET " + a.add(offset)
	}
	if limit > 0 {
		q += " LIMIT " + a.add(limit)
	}

	rows, err := r.db.QueryContext(ctx, q, a.args...)
	if err != nil {
		return nil, fmt.Errorf("search assignments: %w", err)
	}
	defer rows.Close()

	out := []models.GenericTask{}
	for rows.Next() {
		g, err := scanGenericTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func scanGenericTask(rows *sql.Rows) (*models.GenericTask, error) {
	var (
		g            models.GenericTask
		typ          string
		projectShort sql.NullString
		assignee     sql.NullString
		assigneeName sql.NullString
		createdUser  sql.NullString
		dueDate      sql.NullTime
		f            facetRow
	)
	err := rows.Scan(
		&typ, &g.TypeID, &g.ProjectID, &projectShort, &g.SAccountID, &g.Name,
		&assignee, &assigneeName, &createdUser, &dueDate, &g.Status, &g.IsClosed,
		&g.CreatedTime, &g.LastUpdatedTime,
		&f.text1, &f.text2, &f.num, &f.ref, &f.when,
	)
	if err != nil {
		return nil, err
	}

	g.Type = models.AssignmentType(typ)
	g.ProjectShortName = projectShort.String
	g.Assignee = assignee.String
	g.AssigneeFullName = assigneeName.String
	g.CreatedUser = createdUser.String
	if dueDate.Valid {
		t := dueDate.Time
		g.DueDate = &t
	}
	if src, ok := assignmentSources[g.Type]; ok {
		src.facet(&g, f)
	}
	return &g, nil
}

// genericSortClause always ends with type, type_id so paging is stable.
func genericSortClause(sort string) string {
	const tail = "type ASC, type_id ASC"
	if sort == "" {
		return "due_date ASC NULLS LAST, " + tail
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"due_date": true, "name": true, "created_time": true,
		"last_updated_time": true, "status": true, "type": true,
	}
	if !allowed[col] {
		return "due_date ASC NULLS LAST, " + tail
	}
	if desc {
		return col + " DESC NULLS LAST, " + tail
	}
	return col + " ASC NULLS LAST, " + tail
}
