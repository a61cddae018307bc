package cli

import (
	internalApp "github.com/felixgeelhaar/taskrank/internal/app"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/taskrank/internal/prioritization/application/queries"
)

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	AnalyzeTasksHandler *commands.AnalyzeTasksHandler

	// Query Handlers
	SuggestTasksHandler   *queries.SuggestTasksHandler
	PlanTasksHandler      *queries.PlanTasksHandler
	ListStrategiesHandler *queries.ListStrategiesHandler
}

// NewApp creates a CLI application backed by the container's handlers.
func NewApp(container *internalApp.Container) *App {
	return &App{
		AnalyzeTasksHandler:   container.AnalyzeTasksHandler,
		SuggestTasksHandler:   container.SuggestTasksHandler,
		PlanTasksHandler:      container.PlanTasksHandler,
		ListStrategiesHandler: container.ListStrategiesHandler,
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
