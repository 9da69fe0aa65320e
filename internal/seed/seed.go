package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/ebdashboard/internal/app/models"
	appRepos "github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"golang.org/x/crypto/bcrypt"
)

// Options controls which default records are created
type Options struct {
	AdminEmail    string
	AdminPassword string
}

// DefaultCourses is the starter catalogue used by the recommendation scorer
var DefaultCourses = []appModels.Course{
	{
		Code: "ENV101", Title: "Introduction to Environmental Science",
		Description: "Core concepts of ecosystems, resources and human impact.",
		Tags:        []string{"environment", "ecology", "sustainability"},
		Difficulty:  appModels.DifficultyIntro,
		RecommendedForYears: []appModels.Year{appModels.YearFreshman, appModels.YearSophomore},
	},
	{
		Code: "ENE210", Title: "Renewable Energy Systems",
		Description: "Solar, wind and storage technologies and their economics.",
		Tags:        []string{"energy", "renewables", "engineering"},
		Difficulty:  appModels.DifficultyIntermediate,
		RecommendedForYears: []appModels.Year{appModels.YearSophomore, appModels.YearJunior},
	},
	{
		Code: "SUS230", Title: "Sustainable Supply Chains",
		Description: "Procurement, lifecycle analysis and circular economy practice.",
		Tags:        []string{"sustainability", "business", "recycling"},
		Difficulty:  appModels.DifficultyIntermediate,
		RecommendedForYears: []appModels.Year{appModels.YearJunior, appModels.YearSenior},
	},
	{
		Code: "CLM340", Title: "Climate Modelling",
		Description: "Numerical models of the climate system and scenario analysis.",
		Tags:        []string{"climate", "data", "modelling"},
		Difficulty:  appModels.DifficultyAdvanced,
		RecommendedForYears: []appModels.Year{appModels.YearSenior, appModels.YearGrad},
	},
	{
		Code: "WAT150", Title: "Water Resources",
		Description: "Hydrology basics, water quality and conservation.",
		Tags:        []string{"water", "environment", "conservation"},
		Difficulty:  appModels.DifficultyIntro,
		RecommendedForYears: []appModels.Year{appModels.YearFreshman},
	},
}

// CreateDefaultData creates the administrator account and the starter course catalogue if they don't exist.
// Errors are collected so one failing record does not stop the rest.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, opts Options, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (admin, courses)...")
	var finalErr error

	if err := createAdmin(ctx, repos, opts, lgr); err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	created := 0
	for _, course := range DefaultCourses {
		c := course
		err := repos.Courses.Create(ctx, &c)
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperrors.ErrCodeAlreadyExists):
			// already seeded
		default:
			lgr.Error().Err(err).Str("code", c.Code).Msg("Error creating default course")
			finalErr = errors.Join(finalErr, err)
		}
	}
	lgr.Info().Int("created", created).Msg("Default courses checked")

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

func createAdmin(ctx context.Context, repos *appRepos.Repositories, opts Options, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" || opts.AdminPassword == "" {
		lgr.Warn().Msg("Admin credentials not configured, skipping admin creation")
		return nil
	}

	exists, err := repos.Users.EmailExists(ctx, email)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}
	if exists {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	}

	lgr.Info().Msg("Creating default admin user...")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	admin := &appModels.User{
		Username: "admin",
		Email:    email,
		Password: string(hashedPassword),
		Role:     appModels.RoleAdmin,
		IsActive: true,
	}
	if err := repos.Users.Create(ctx, admin); err != nil {
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}
	lgr.Info().Int64("adminID", admin.ID).Msg("Default admin user created successfully")
	return nil
}
