// Package graph はgraphql-goによるGraphQLスキーマとHTTPエンドポイントを提供する。
// フィールド名はcamelCaseで公開し、日時はRFC 3339、日付は YYYY-MM-DD の文字列で返す。
package graph

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/kainbear/interface-service/internal/model"
)

// Aggregator はスキーマのリゾルバが呼び出す集約レイヤー。
type Aggregator interface {
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	ListVacations(ctx context.Context) ([]model.Vacation, error)
	ListSubdivisions(ctx context.Context) ([]model.Subdivision, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListTasks(ctx context.Context) ([]model.Task, error)

	CreateEmployee(ctx context.Context, in model.EmployeeInput) (*model.Employee, error)
	CreateVacation(ctx context.Context, in model.VacationInput) (*model.Vacation, error)
	CreateSubdivision(ctx context.Context, in model.SubdivisionInput) (*model.Subdivision, error)
	CreateProject(ctx context.Context, in model.ProjectInput) (*model.Project, error)
	CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error)
}

var employeeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Employee",
	Fields: graphql.Fields{
		"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"lastName":     &graphql.Field{Type: graphql.String},
		"firstName":    &graphql.Field{Type: graphql.String},
		"patronymic":   &graphql.Field{Type: graphql.String},
		"email":        &graphql.Field{Type: graphql.String},
		"login":        &graphql.Field{Type: graphql.String},
		"isSupervisor": &graphql.Field{Type: graphql.String},
		"isVacation":   &graphql.Field{Type: graphql.String},
	},
})

var vacationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Vacation",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"employeeId": &graphql.Field{Type: graphql.Int},
		"type":       &graphql.Field{Type: graphql.String},
		"startDate":  &graphql.Field{Type: graphql.String},
		"endDate":    &graphql.Field{Type: graphql.String},
	},
})

var subdivisionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Subdivision",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":        &graphql.Field{Type: graphql.String},
		"leaderId":    &graphql.Field{Type: graphql.Int},
		"employeeIds": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.Int)))},
	},
})

var projectType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Project",
	Fields: graphql.Fields{
		"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name": &graphql.Field{Type: graphql.String},
		"type": &graphql.Field{Type: graphql.String},
	},
})

var taskType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Task",
	Fields: graphql.Fields{
		"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"title":         &graphql.Field{Type: graphql.String},
		"description":   &graphql.Field{Type: graphql.String},
		"dueDate":       &graphql.Field{Type: graphql.String},
		"actualDueDate": &graphql.Field{Type: graphql.String},
		"hoursSpent":    &graphql.Field{Type: graphql.Int},
		"userId":        &graphql.Field{Type: graphql.Int},
		"projectId":     &graphql.Field{Type: graphql.Int},
		"type":          &graphql.Field{Type: graphql.String},
	},
})

var employeeInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "EmployeeCreateInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"lastName":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"firstName":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"patronymic":   &graphql.InputObjectFieldConfig{Type: graphql.String},
		"email":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"login":        &graphql.InputObjectFieldConfig{Type: graphql.String},
		"password":     &graphql.InputObjectFieldConfig{Type: graphql.String},
		"isSupervisor": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"isVacation":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

var vacationInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "VacationCreateInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"employeeId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		"type":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"startDate":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		"endDate":    &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

var subdivisionInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "SubdivisionCreateInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"leaderId": &graphql.InputObjectFieldConfig{Type: graphql.Int},
	},
})

var projectInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "ProjectCreateInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"type": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

var taskInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "TaskCreateInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"title":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"description":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"dueDate":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"actualDueDate": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"hoursSpent":    &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"userId":        &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"projectId":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		"type":          &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

func inputArg(t graphql.Input) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t)},
	}
}

// NewSchema は集約レイヤーを呼び出すGraphQLスキーマを構築する。
func NewSchema(agg Aggregator) (graphql.Schema, error) {
	r := &resolver{agg: agg}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"allEmployees": &graphql.Field{
				Type:    graphql.NewList(graphql.NewNonNull(employeeType)),
				Resolve: r.allEmployees,
			},
			"allVacations": &graphql.Field{
				Type:    graphql.NewList(graphql.NewNonNull(vacationType)),
				Resolve: r.allVacations,
			},
			"allSubdivisions": &graphql.Field{
				Type:    graphql.NewList(graphql.NewNonNull(subdivisionType)),
				Resolve: r.allSubdivisions,
			},
			"allProjects": &graphql.Field{
				Type:    graphql.NewList(graphql.NewNonNull(projectType)),
				Resolve: r.allProjects,
			},
			"allTask": &graphql.Field{
				Type:    graphql.NewList(graphql.NewNonNull(taskType)),
				Resolve: r.allTask,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createEmployee": &graphql.Field{
				Type:    employeeType,
				Args:    inputArg(employeeInputType),
				Resolve: r.createEmployee,
			},
			"createVacation": &graphql.Field{
				Type:    vacationType,
				Args:    inputArg(vacationInputType),
				Resolve: r.createVacation,
			},
			"createSubdivision": &graphql.Field{
				Type:    subdivisionType,
				Args:    inputArg(subdivisionInputType),
				Resolve: r.createSubdivision,
			},
			"createProject": &graphql.Field{
				Type:    projectType,
				Args:    inputArg(projectInputType),
				Resolve: r.createProject,
			},
			"createTask": &graphql.Field{
				Type:    taskType,
				Args:    inputArg(taskInputType),
				Resolve: r.createTask,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
