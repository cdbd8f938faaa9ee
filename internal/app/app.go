package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chrissnell/cornealfit/internal/managers"
	"github.com/chrissnell/cornealfit/internal/reftable"
	"github.com/chrissnell/cornealfit/internal/tearfilm"
	"github.com/chrissnell/cornealfit/internal/types"
	"github.com/chrissnell/cornealfit/pkg/config"
	"go.uber.org/zap"
)

// Result is the outcome of one batch job
type Result struct {
	managers.JobStatus
	Customization *types.ToricCustomization `json:"customization,omitempty"`
	Profile       *types.TearFilmProfile    `json:"profile,omitempty"`
	Staining      *tearfilm.StainingMap     `json:"staining,omitempty"`
}

// App represents the batch application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// LoadReferenceTable loads the reference table from the configured source
func LoadReferenceTable(cfg config.ReferenceTableData) (*reftable.Table, error) {
	switch cfg.Source {
	case "", config.ReferenceEmbedded:
		return reftable.Load(reftable.NewEmbeddedProvider())
	case config.ReferenceYAML:
		return reftable.Load(reftable.NewYAMLProvider(cfg.Path))
	case config.ReferenceSQLite:
		p, err := reftable.NewSQLiteProvider(cfg.Path)
		if err != nil {
			return nil, err
		}
		defer p.Close()
		return reftable.Load(p)
	default:
		return nil, fmt.Errorf("unknown reference table source [%s]", cfg.Source)
	}
}

// Run executes every job and returns one result per job, in order. It stops
// scheduling new work on SIGINT/SIGTERM or when ctx is cancelled.
func (a *App) Run(ctx context.Context, jobSpecs []JobSpec) ([]Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	table, err := LoadReferenceTable(a.cfg.ReferenceTable)
	if err != nil {
		return nil, fmt.Errorf("error loading reference table: %w", err)
	}
	a.logger.Infof("loaded %d reference entries from %s source", table.Len(), a.cfg.ReferenceTable.Source)

	service := NewService(table, a.cfg.Fitting, a.logger)

	fm, err := managers.NewFitManager(a.cfg.Fitting.Workers, a.logger)
	if err != nil {
		return nil, err
	}
	defer fm.Close()

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			a.logger.Info("shutdown signal received, cancelling pending jobs...")
			cancel()
		case <-ctx.Done():
		}
	}()

	results := make([]Result, len(jobSpecs))
	jobs := make([]managers.Job, len(jobSpecs))
	for i, job := range jobSpecs {
		jobs[i] = managers.Job{
			Name: job.Name,
			Run: func(ctx context.Context) error {
				return a.runJob(ctx, service, job, &results[i])
			},
		}
	}

	for i, status := range fm.Run(ctx, jobs) {
		results[i].JobStatus = status
	}
	return results, nil
}

func (a *App) runJob(ctx context.Context, service *Service, job JobSpec, res *Result) error {
	req, err := job.Request()
	if err != nil {
		return err
	}

	tc, err := service.Fit(ctx, req)
	if err != nil {
		return err
	}

	var (
		profile  *types.TearFilmProfile
		staining *tearfilm.StainingMap
	)
	if job.Profile || job.Staining {
		profile, err = service.Profile(ctx, tc, req.File, job.Family, job.OpticalZoneDiameter, job.OverallDiameter)
		if err != nil {
			return fmt.Errorf("error building tear-film profile: %w", err)
		}
	}
	if job.Staining {
		if staining, err = tearfilm.Staining(profile, job.OverallDiameter); err != nil {
			return err
		}
	}

	// Results are published whole or not at all
	res.Customization, res.Profile, res.Staining = tc, profile, staining
	return nil
}
