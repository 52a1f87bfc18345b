package graph

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/kainbear/interface-service/internal/model"
)

// resolver はAggregatorの結果をGraphQLの応答形に写像する。
// エラーは *model.APIError / *model.UpstreamError のまま返し、extensions に code と status を載せる。
type resolver struct {
	agg Aggregator
}

func (r *resolver) allEmployees(p graphql.ResolveParams) (interface{}, error) {
	employees, err := r.agg.ListEmployees(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(employees))
	for _, e := range employees {
		out = append(out, employeeToMap(&e))
	}
	return out, nil
}

func (r *resolver) allVacations(p graphql.ResolveParams) (interface{}, error) {
	vacations, err := r.agg.ListVacations(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(vacations))
	for _, v := range vacations {
		out = append(out, vacationToMap(&v))
	}
	return out, nil
}

func (r *resolver) allSubdivisions(p graphql.ResolveParams) (interface{}, error) {
	subdivisions, err := r.agg.ListSubdivisions(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(subdivisions))
	for _, s := range subdivisions {
		out = append(out, subdivisionToMap(&s))
	}
	return out, nil
}

func (r *resolver) allProjects(p graphql.ResolveParams) (interface{}, error) {
	projects, err := r.agg.ListProjects(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(projects))
	for _, pr := range projects {
		out = append(out, projectToMap(&pr))
	}
	return out, nil
}

func (r *resolver) allTask(p graphql.ResolveParams) (interface{}, error) {
	tasks, err := r.agg.ListTasks(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToMap(&t))
	}
	return out, nil
}

func (r *resolver) createEmployee(p graphql.ResolveParams) (interface{}, error) {
	in := inputOf(p)
	e, err := r.agg.CreateEmployee(p.Context, model.EmployeeInput{
		LastName:     argString(in, "lastName"),
		FirstName:    argString(in, "firstName"),
		Patronymic:   argString(in, "patronymic"),
		Email:        argString(in, "email"),
		Login:        argString(in, "login"),
		Password:     argString(in, "password"),
		IsSupervisor: model.YesNo(argString(in, "isSupervisor")),
		IsVacation:   model.YesNo(argString(in, "isVacation")),
	})
	if err != nil {
		return nil, err
	}
	return employeeToMap(e), nil
}

func (r *resolver) createVacation(p graphql.ResolveParams) (interface{}, error) {
	in := inputOf(p)
	start, err := argDate(in, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := argDate(in, "endDate")
	if err != nil {
		return nil, err
	}
	v, err := r.agg.CreateVacation(p.Context, model.VacationInput{
		EmployeeID: argInt(in, "employeeId"),
		Type:       model.VacationType(argString(in, "type")),
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		return nil, err
	}
	return vacationToMap(v), nil
}

func (r *resolver) createSubdivision(p graphql.ResolveParams) (interface{}, error) {
	in := inputOf(p)
	s, err := r.agg.CreateSubdivision(p.Context, model.SubdivisionInput{
		Name:     argString(in, "name"),
		LeaderID: argIntPtr(in, "leaderId"),
	})
	if err != nil {
		return nil, err
	}
	return subdivisionToMap(s), nil
}

func (r *resolver) createProject(p graphql.ResolveParams) (interface{}, error) {
	in := inputOf(p)
	pr, err := r.agg.CreateProject(p.Context, model.ProjectInput{
		Name: argString(in, "name"),
		Type: model.TaskStatus(argString(in, "type")),
	})
	if err != nil {
		return nil, err
	}
	return projectToMap(pr), nil
}

func (r *resolver) createTask(p graphql.ResolveParams) (interface{}, error) {
	in := inputOf(p)
	due, err := model.ParseTimestamp(argString(in, "dueDate"))
	if err != nil {
		return nil, model.NewValidationError("dueDate: " + err.Error())
	}
	actual, err := argTimestamp(in, "actualDueDate")
	if err != nil {
		return nil, err
	}
	hours := 0
	if h := argIntPtr(in, "hoursSpent"); h != nil {
		hours = *h
	}
	t, err := r.agg.CreateTask(p.Context, model.TaskInput{
		Title:         argString(in, "title"),
		Description:   argString(in, "description"),
		DueDate:       due,
		ActualDueDate: actual,
		HoursSpent:    hours,
		UserID:        argIntPtr(in, "userId"),
		ProjectID:     argInt(in, "projectId"),
		Type:          model.TaskStatus(argString(in, "type")),
	})
	if err != nil {
		return nil, err
	}
	return taskToMap(t), nil
}

func inputOf(p graphql.ResolveParams) map[string]interface{} {
	in, _ := p.Args["input"].(map[string]interface{})
	return in
}

func argString(in map[string]interface{}, key string) string {
	s, _ := in[key].(string)
	return s
}

func argInt(in map[string]interface{}, key string) int {
	if v := argIntPtr(in, key); v != nil {
		return *v
	}
	return 0
}

func argIntPtr(in map[string]interface{}, key string) *int {
	if v, ok := in[key].(int); ok {
		return &v
	}
	return nil
}

func argDate(in map[string]interface{}, key string) (*model.Date, error) {
	s := argString(in, key)
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, model.NewValidationError(fmt.Sprintf("%s: %v", key, err))
	}
	return &d, nil
}

func argTimestamp(in map[string]interface{}, key string) (*model.Timestamp, error) {
	s := argString(in, key)
	if s == "" {
		return nil, nil
	}
	ts, err := model.ParseTimestamp(s)
	if err != nil {
		return nil, model.NewValidationError(fmt.Sprintf("%s: %v", key, err))
	}
	return &ts, nil
}

func employeeToMap(e *model.Employee) map[string]interface{} {
	return map[string]interface{}{
		"id":           e.ID,
		"lastName":     e.LastName,
		"firstName":    e.FirstName,
		"patronymic":   e.Patronymic,
		"email":        e.Email,
		"login":        e.Login,
		"isSupervisor": string(e.IsSupervisor),
		"isVacation":   string(e.IsVacation),
	}
}

func vacationToMap(v *model.Vacation) map[string]interface{} {
	return map[string]interface{}{
		"id":         v.ID,
		"employeeId": intOrNil(v.EmployeeID),
		"type":       string(v.Type),
		"startDate":  dateOrNil(v.StartDate),
		"endDate":    dateOrNil(v.EndDate),
	}
}

func subdivisionToMap(s *model.Subdivision) map[string]interface{} {
	ids := s.EmployeeIDs
	if ids == nil {
		ids = []int{}
	}
	return map[string]interface{}{
		"id":          s.ID,
		"name":        s.Name,
		"leaderId":    intOrNil(s.LeaderID),
		"employeeIds": ids,
	}
}

func projectToMap(p *model.Project) map[string]interface{} {
	return map[string]interface{}{
		"id":   p.ID,
		"name": p.Name,
		"type": string(p.Type),
	}
}

func taskToMap(t *model.Task) map[string]interface{} {
	return map[string]interface{}{
		"id":            t.ID,
		"title":         t.Title,
		"description":   t.Description,
		"dueDate":       timestampOrNil(t.DueDate),
		"actualDueDate": timestampOrNil(t.ActualDueDate),
		"hoursSpent":    t.HoursSpent,
		"userId":        intOrNil(t.UserID),
		"projectId":     intOrNil(t.ProjectID),
		"type":          string(t.Type),
	}
}

func intOrNil(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func dateOrNil(d model.Date) interface{} {
	if d.IsZero() {
		return nil
	}
	return d.Wire()
}

func timestampOrNil(ts model.Timestamp) interface{} {
	if ts.IsZero() {
		return nil
	}
	return ts.Wire()
}
